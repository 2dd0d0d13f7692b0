package models

import "time"

// AttemptKind distinguishes the rate-limited actions sharing the attempt log.
type AttemptKind string

const (
	AttemptRegistration AttemptKind = "registration"
	AttemptOTPResend    AttemptKind = "otp_resend"
)

// RegistrationAttempt is one row of the append-only attempt log.
type RegistrationAttempt struct {
	ID        int64       `db:"id"`
	Phone     string      `db:"phone"`
	Kind      AttemptKind `db:"kind"`
	CreatedAt time.Time   `db:"created_at"`
}
