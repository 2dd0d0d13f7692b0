package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/agrolink/agrolink_api/internal/lock"
	"github.com/agrolink/agrolink_api/internal/metrics"
	"github.com/agrolink/agrolink_api/internal/models"
	"github.com/agrolink/agrolink_api/internal/otp"
	"github.com/agrolink/agrolink_api/internal/repository"
	"github.com/agrolink/agrolink_api/internal/sms"
	"github.com/agrolink/agrolink_api/internal/utils"
)

// Webhook response messages, one per transition.
const (
	MsgUserAdded             = "User added or exists"
	MsgRegistrationLimited   = "Registration attempt limit reached"
	MsgRegistrationPending   = "Registration already in progress"
	MsgOTPSent               = "OTP sent"
	MsgInvalidNameAccount    = "Invalid name and account format"
	MsgRegistrationCompleted = "Registration completed"
	MsgInvalidOTP            = "Invalid or expired OTP"
	MsgOTPResent             = "OTP resent"
	MsgOTPResendLimited      = "OTP resend limit reached"
	MsgAlreadyRegistered     = "User already registered"
	MsgProductAdded          = "Product added and confirmation sent"
	MsgProductNotUnderstood  = "Product format not understood"
	MsgNoAction              = "No action needed"
)

// InboundMessage is one SMS received from the gateway.
type InboundMessage struct {
	Sender string
	Text   string
}

// Outcome describes the transition taken for a message.
type Outcome struct {
	Message string
	UserID  string
	Product *models.Product
	Intent  sms.Intent
	From    models.UserStatus
	To      models.UserStatus

	// NoticeSent reports whether the SMS reply, if any, was delivered.
	NoticeSent bool
	notice     string
}

// RegistrationService drives the SMS registration and product posting
// state machine: new -> name_account_pending -> otp_pending -> registered.
type RegistrationService struct {
	users      UserStore
	limiter    *RateLimiter
	issuer     *otp.Issuer
	messenger  Messenger
	products   ProductIngester
	events     EventNotifier
	locker     lock.Locker
	classifier *sms.Classifier
	metrics    *metrics.Metrics
	now        func() time.Time
}

func NewRegistrationService(
	users UserStore,
	limiter *RateLimiter,
	issuer *otp.Issuer,
	messenger Messenger,
	products ProductIngester,
	events EventNotifier,
	locker lock.Locker,
	classifier *sms.Classifier,
	m *metrics.Metrics,
) *RegistrationService {
	return &RegistrationService{
		users:      users,
		limiter:    limiter,
		issuer:     issuer,
		messenger:  messenger,
		products:   products,
		events:     events,
		locker:     locker,
		classifier: classifier,
		metrics:    m,
		now:        time.Now,
	}
}

// Handle runs exactly one transition for msg while holding the sender's
// lock, then sends the resulting notice outside the lock. A notice that
// fails to send never fails the call.
func (s *RegistrationService) Handle(ctx context.Context, msg InboundMessage) (*Outcome, error) {
	phone := strings.TrimSpace(msg.Sender)
	if phone == "" {
		return nil, utils.ErrInvalidPayload
	}

	out, err := s.handleLocked(ctx, phone, sms.Normalize(msg.Text))
	if err != nil {
		return nil, err
	}

	s.metrics.InboundSMS(out.Intent.String())
	if out.notice != "" {
		out.NoticeSent = s.messenger.Send(ctx, phone, out.notice)
	}

	log.Info().
		Str("phone", phone).
		Str("intent", out.Intent.String()).
		Str("from", string(out.From)).
		Str("to", string(out.To)).
		Str("result", out.Message).
		Bool("notice_sent", out.NoticeSent).
		Msg("Inbound SMS handled")
	return out, nil
}

func (s *RegistrationService) handleLocked(ctx context.Context, phone, text string) (*Outcome, error) {
	unlock, err := s.locker.Lock(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", phone, err)
	}
	defer unlock()

	user, err := s.users.GetByPhone(ctx, phone)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		user = nil
	case err != nil:
		return nil, fmt.Errorf("load user: %w", err)
	}

	status := models.UserStatusNew
	if user != nil {
		status = user.Status
	}
	cls := s.classifier.Classify(text, status)
	out := &Outcome{Intent: cls.Intent, From: status, To: status}
	if user != nil {
		out.UserID = user.ID
	}

	switch status {
	case models.UserStatusNew:
		if cls.Intent == sms.IntentRegistrationTrigger {
			return out, s.startRegistration(ctx, phone, user, out)
		}
	case models.UserStatusNameAccountPending:
		switch {
		case cls.Intent == sms.IntentRegistrationTrigger:
			return out.reply(MsgRegistrationPending, sms.MsgRegistrationInProgress), nil
		case cls.NameAccount != nil:
			return out, s.acceptNameAccount(ctx, user, cls.NameAccount, out)
		default:
			return out.reply(MsgInvalidNameAccount, sms.MsgInvalidNameAccount), nil
		}
	case models.UserStatusOTPPending:
		switch cls.Intent {
		case sms.IntentOTPSubmission:
			return out, s.verifyOTP(ctx, user, cls.OTP, out)
		case sms.IntentRegistrationTrigger:
			return out, s.resendOTP(ctx, user, out)
		}
	case models.UserStatusRegistered:
		switch {
		case cls.Intent == sms.IntentRegistrationTrigger:
			return out.reply(MsgAlreadyRegistered, sms.MsgAlreadyRegistered), nil
		case cls.Product != nil:
			return out, s.listProduct(ctx, user, cls.Product, out)
		default:
			return out.reply(MsgProductNotUnderstood, sms.MsgProductNotUnderstood), nil
		}
	}

	out.Message = MsgNoAction
	return out, nil
}

func (s *RegistrationService) startRegistration(ctx context.Context, phone string, user *models.User, out *Outcome) error {
	allowed, count, err := s.limiter.Allow(ctx, phone, models.AttemptRegistration)
	if err != nil {
		return err
	}
	if !allowed {
		out.reply(MsgRegistrationLimited, sms.RegistrationLimited(s.classifier.Trigger()))
		return nil
	}

	now := s.now()
	if user == nil {
		user = &models.User{
			Phone:                   phone,
			Role:                    models.RoleFarmer,
			Status:                  models.UserStatusNameAccountPending,
			LastRegistrationAttempt: &now,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
	} else {
		user.LastRegistrationAttempt = &now
		if err := s.advance(ctx, user, models.UserStatusNameAccountPending); err != nil {
			return err
		}
	}

	log.Info().Str("phone", phone).Str("user_id", user.ID).Int("attempt", count).Msg("Registration started")
	out.UserID = user.ID
	out.To = user.Status
	out.reply(MsgUserAdded, sms.MsgWelcome)
	return nil
}

func (s *RegistrationService) acceptNameAccount(ctx context.Context, user *models.User, na *sms.NameAccount, out *Outcome) error {
	code, err := s.issuer.Issue(s.now())
	if err != nil {
		return err
	}

	user.Name = &na.Name
	user.AccountNumber = &na.AccountNumber
	user.OTPHash = &code.Hash
	user.OTPExpiresAt = &code.ExpiresAt
	if err := s.advance(ctx, user, models.UserStatusOTPPending); err != nil {
		return err
	}

	out.To = user.Status
	out.reply(MsgOTPSent, sms.OTPCode(code.Code, s.otpMinutes()))
	return nil
}

func (s *RegistrationService) verifyOTP(ctx context.Context, user *models.User, submitted string, out *Outcome) error {
	var ok bool
	if user.OTPHash != nil && user.OTPExpiresAt != nil {
		ok = otp.Verify(submitted, *user.OTPHash, *user.OTPExpiresAt, s.now())
	}

	// A code is good for one attempt, right or wrong.
	user.ClearOTP()
	next := models.UserStatusOTPPending
	if ok {
		next = models.UserStatusRegistered
	}
	if err := s.advance(ctx, user, next); err != nil {
		return err
	}
	out.To = user.Status

	if !ok {
		out.reply(MsgInvalidOTP, sms.OTPInvalid(s.classifier.Trigger()))
		return nil
	}

	s.metrics.RegistrationCompleted()
	s.events.NotifyUserRegistered(user)
	log.Info().Str("phone", user.Phone).Str("user_id", user.ID).Msg("Registration completed")
	out.reply(MsgRegistrationCompleted, sms.MsgRegistrationCompleted)
	return nil
}

func (s *RegistrationService) resendOTP(ctx context.Context, user *models.User, out *Outcome) error {
	allowed, _, err := s.limiter.Allow(ctx, user.Phone, models.AttemptOTPResend)
	if err != nil {
		return err
	}
	if !allowed {
		out.reply(MsgOTPResendLimited, sms.OTPResendLimited())
		return nil
	}

	now := s.now()
	code, err := s.issuer.Issue(now)
	if err != nil {
		return err
	}
	user.OTPHash = &code.Hash
	user.OTPExpiresAt = &code.ExpiresAt
	user.LastRegistrationAttempt = &now
	if err := s.advance(ctx, user, models.UserStatusOTPPending); err != nil {
		return err
	}

	out.reply(MsgOTPResent, sms.OTPCode(code.Code, s.otpMinutes()))
	return nil
}

func (s *RegistrationService) listProduct(ctx context.Context, user *models.User, line *sms.ProductLine, out *Outcome) error {
	product, err := s.products.Ingest(ctx, user, *line)
	if errors.Is(err, utils.ErrInvalidProduct) {
		out.reply(MsgProductNotUnderstood, sms.MsgProductNotUnderstood)
		return nil
	}
	if err != nil {
		return err
	}

	out.Product = product
	out.reply(MsgProductAdded, sms.ProductConfirmed(product.Name, product.Quantity, product.Price))
	return nil
}

// advance persists user in status next. Status never moves backwards or
// skips a step.
func (s *RegistrationService) advance(ctx context.Context, user *models.User, next models.UserStatus) error {
	if !user.Status.CanAdvanceTo(next) {
		return fmt.Errorf("%w: %s -> %s", utils.ErrInvalidTransition, user.Status, next)
	}
	prev := user.Status
	user.Status = next
	if err := s.users.Update(ctx, user); err != nil {
		user.Status = prev
		return fmt.Errorf("update user %s: %w", user.ID, err)
	}
	return nil
}

func (s *RegistrationService) otpMinutes() int {
	m := int(s.issuer.TTL / time.Minute)
	if m < 1 {
		m = 1
	}
	return m
}

func (o *Outcome) reply(message, notice string) *Outcome {
	o.Message = message
	o.notice = notice
	return o
}
