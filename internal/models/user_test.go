package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserStatus_CanAdvanceTo(t *testing.T) {
	tests := []struct {
		from, to UserStatus
		want     bool
	}{
		{UserStatusNew, UserStatusNameAccountPending, true},
		{UserStatusNameAccountPending, UserStatusOTPPending, true},
		{UserStatusOTPPending, UserStatusRegistered, true},
		{UserStatusOTPPending, UserStatusOTPPending, true},
		{UserStatusRegistered, UserStatusRegistered, true},
		{UserStatusNew, UserStatusRegistered, false},
		{UserStatusOTPPending, UserStatusNameAccountPending, false},
		{UserStatusRegistered, UserStatusNew, false},
		{UserStatus("banned"), UserStatusNew, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanAdvanceTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestUser_ClearOTP(t *testing.T) {
	hash := "x"
	exp := time.Now()
	u := &User{OTPHash: &hash, OTPExpiresAt: &exp}
	u.ClearOTP()
	assert.Nil(t, u.OTPHash)
	assert.Nil(t, u.OTPExpiresAt)
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "+251******678", MaskPhone("+251912345678"))
	assert.Equal(t, "12345", MaskPhone("12345"))
}
