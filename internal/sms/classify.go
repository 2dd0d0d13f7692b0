package sms

import (
	"regexp"
	"strings"

	"github.com/agrolink/agrolink_api/internal/models"
)

// Intent is the classified purpose of an inbound message.
type Intent int

const (
	IntentUnrecognized Intent = iota
	IntentRegistrationTrigger
	IntentNameAccountSubmission
	IntentOTPSubmission
	IntentProductSubmission
)

func (i Intent) String() string {
	switch i {
	case IntentRegistrationTrigger:
		return "registration_trigger"
	case IntentNameAccountSubmission:
		return "name_account_submission"
	case IntentOTPSubmission:
		return "otp_submission"
	case IntentProductSubmission:
		return "product_submission"
	default:
		return "unrecognized"
	}
}

// DefaultTrigger is the Ethiopic letter that starts registration.
const DefaultTrigger = "ሀ"

// DefaultOTPLength is the number of digits in a one-time code.
const DefaultOTPLength = 6

// NameAccount is a parsed "name, account number" reply.
type NameAccount struct {
	Name          string
	AccountNumber string
}

// Classification is the result of Classify. For name/account and product
// submissions the parsed payload is nil when the text did not parse; the
// caller answers those with a format hint instead of ignoring them.
type Classification struct {
	Intent      Intent
	NameAccount *NameAccount
	OTP         string
	Product     *ProductLine
}

// Classifier classifies normalized message text against the sender's status.
type Classifier struct {
	trigger   string
	otpLength int
}

// NewClassifier builds a Classifier. Empty trigger or non-positive length
// fall back to the defaults.
func NewClassifier(trigger string, otpLength int) *Classifier {
	trigger = strings.TrimSpace(trigger)
	if trigger == "" {
		trigger = DefaultTrigger
	}
	if otpLength <= 0 {
		otpLength = DefaultOTPLength
	}
	return &Classifier{trigger: trigger, otpLength: otpLength}
}

var defaultClassifier = NewClassifier(DefaultTrigger, DefaultOTPLength)

// Classify uses the default trigger and code length.
func Classify(text string, status models.UserStatus) Classification {
	return defaultClassifier.Classify(text, status)
}

// Classify never fails: anything it cannot place is IntentUnrecognized.
// The registration trigger is checked first for every status, then the
// submission pattern that fits the status.
func (c *Classifier) Classify(text string, status models.UserStatus) Classification {
	if c.IsTrigger(text) {
		return Classification{Intent: IntentRegistrationTrigger}
	}

	switch status {
	case models.UserStatusNameAccountPending:
		return Classification{Intent: IntentNameAccountSubmission, NameAccount: ParseNameAccount(text)}
	case models.UserStatusOTPPending:
		code := strings.TrimSpace(text)
		if c.isOTP(code) {
			return Classification{Intent: IntentOTPSubmission, OTP: code}
		}
	case models.UserStatusRegistered:
		return Classification{Intent: IntentProductSubmission, Product: ParseProduct(text)}
	}
	return Classification{Intent: IntentUnrecognized}
}

// tokenTrim strips punctuation that commonly sticks to a one-word reply.
const tokenTrim = ".,!?;:።፣፤፥፦\"'"

// IsTrigger reports whether the trigger appears as a standalone word, so a
// name such as "ሀብታሙ" does not restart registration.
func (c *Classifier) IsTrigger(text string) bool {
	for _, field := range strings.Fields(text) {
		if strings.Trim(field, tokenTrim) == c.trigger {
			return true
		}
	}
	return false
}

// Trigger returns the configured trigger word.
func (c *Classifier) Trigger() string {
	return c.trigger
}

func (c *Classifier) isOTP(s string) bool {
	if len(s) != c.otpLength {
		return false
	}
	return isASCIIDigits(s)
}

// listSeparator matches the Latin, full-width and Ethiopic commas.
var listSeparator = regexp.MustCompile(`[,，፣]`)

// ParseNameAccount accepts exactly two comma separated parts where the
// second is all digits.
func ParseNameAccount(text string) *NameAccount {
	parts := listSeparator.Split(text, -1)
	if len(parts) != 2 {
		return nil
	}
	name := strings.Join(strings.Fields(parts[0]), " ")
	account := strings.TrimSpace(parts[1])
	if name == "" || !isASCIIDigits(account) {
		return nil
	}
	return &NameAccount{Name: name, AccountNumber: account}
}

func isASCIIDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
