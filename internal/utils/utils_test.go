package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"sender":"+251911000000","message":"ሀ"}`)
	sig := GenerateSignature(body, "s3cret")

	assert.True(t, VerifySignature(body, SignaturePrefix+sig, "s3cret"))
	assert.True(t, VerifySignature(body, sig, "s3cret"))
	assert.False(t, VerifySignature(body, SignaturePrefix+sig, "other"))
	assert.False(t, VerifySignature([]byte("{}"), SignaturePrefix+sig, "s3cret"))
	assert.False(t, VerifySignature(body, "", "s3cret"))
}

func TestCheckSignature(t *testing.T) {
	body := []byte(`{"sender":"+251911000000","message":"ሀ"}`)
	sig := SignaturePrefix + GenerateSignature(body, "s3cret")

	assert.NoError(t, CheckSignature(body, sig, "s3cret"))
	assert.ErrorIs(t, CheckSignature(body, "  ", "s3cret"), ErrMissingSignature)
	assert.ErrorIs(t, CheckSignature(body, sig, "other"), ErrInvalidSignature)
}

func TestJWT_RoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")
	t.Cleanup(func() { SetJWTSecret("") })

	token, err := SignJWT(Claims{
		UserID: "u1",
		Role:   RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestJWT_Rejects(t *testing.T) {
	SetJWTSecret("test-secret")
	t.Cleanup(func() { SetJWTSecret("") })

	expired, err := SignJWT(Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}})
	require.NoError(t, err)
	_, err = ValidateJWT(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noExp, err := SignJWT(Claims{UserID: "u1"})
	require.NoError(t, err)
	_, err = ValidateJWT(noExp)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ValidateJWT("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	SetJWTSecret("another-secret")
	valid, _ := SignJWT(Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}})
	SetJWTSecret("test-secret")
	_, err = ValidateJWT(valid)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRetry(t *testing.T) {
	ctx := context.Background()
	transient := errors.New("transient")

	calls := 0
	err := Retry(ctx, 3, time.Millisecond, func(int) error {
		calls++
		if calls < 3 {
			return transient
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = Retry(ctx, 3, time.Millisecond, func(int) error {
		calls++
		return transient
	})
	assert.ErrorIs(t, err, transient)
	assert.Equal(t, 3, calls)

	calls = 0
	bad := errors.New("bad request")
	err = Retry(ctx, 3, time.Millisecond, func(int) error {
		calls++
		return Permanent(bad)
	})
	assert.Equal(t, bad, err)
	assert.False(t, IsPermanent(err))
	assert.Equal(t, 1, calls)
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, 5, time.Hour, func(int) error { return errors.New("x") })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalizePage(t *testing.T) {
	p, l := NormalizePage(0, 0)
	assert.Equal(t, 1, p)
	assert.Equal(t, DefaultPageLimit, l)

	_, l = NormalizePage(2, 1000)
	assert.Equal(t, MaxPageLimit, l)
}

func TestGenerateSecret(t *testing.T) {
	s, err := GenerateWebhookSecret()
	require.NoError(t, err)
	assert.Len(t, s, len("agl_whsec_")+64)
}
