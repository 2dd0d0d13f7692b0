package models

import "time"

// UserStatus tracks where an SMS user is in the registration flow.
type UserStatus string

const (
	UserStatusNew                UserStatus = "new"
	UserStatusNameAccountPending UserStatus = "name_account_pending"
	UserStatusOTPPending         UserStatus = "otp_pending"
	UserStatusRegistered         UserStatus = "registered"
)

// RoleFarmer is the fixed role of accounts created over SMS.
const RoleFarmer = "Farmer"

// rank orders statuses along the registration chain.
var statusRank = map[UserStatus]int{
	UserStatusNew:                0,
	UserStatusNameAccountPending: 1,
	UserStatusOTPPending:         2,
	UserStatusRegistered:         3,
}

// Valid reports whether s is a known status.
func (s UserStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanAdvanceTo reports whether moving from s to next keeps the chain monotonic.
// Staying in place is always allowed.
func (s UserStatus) CanAdvanceTo(next UserStatus) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to == from || to == from+1
}

// User is a farmer account keyed by phone number.
// The pending OTP is stored only as a bcrypt hash.
type User struct {
	ID                      string     `db:"id" json:"id"`
	Phone                   string     `db:"phone" json:"phone"`
	Name                    *string    `db:"name" json:"name,omitempty"`
	AccountNumber           *string    `db:"account_number" json:"accountNumber,omitempty"`
	Role                    string     `db:"role" json:"role"`
	Status                  UserStatus `db:"status" json:"status"`
	OTPHash                 *string    `db:"otp_hash" json:"-"`
	OTPExpiresAt            *time.Time `db:"otp_expires_at" json:"-"`
	LastRegistrationAttempt *time.Time `db:"last_registration_attempt" json:"lastRegistrationAttempt,omitempty"`
	Version                 int        `db:"version" json:"-"`
	CreatedAt               time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt               time.Time  `db:"updated_at" json:"updatedAt"`
}

// ClearOTP drops the pending code. Called after every verification attempt.
func (u *User) ClearOTP() {
	u.OTPHash = nil
	u.OTPExpiresAt = nil
}
