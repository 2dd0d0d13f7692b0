// Package otp issues and verifies the one-time codes that complete SMS
// registration. Only bcrypt hashes of codes are ever persisted.
package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultLength = 6
	DefaultTTL    = 5 * time.Minute
)

// Code is a freshly issued one-time code. Code is sent to the user, Hash is
// stored.
type Code struct {
	Code      string
	Hash      string
	ExpiresAt time.Time
}

// Issuer draws codes uniformly from the full space of Length digits,
// leading zeros included.
type Issuer struct {
	Length int
	TTL    time.Duration
	Cost   int
}

// NewIssuer returns an Issuer with default length and the given TTL.
func NewIssuer(ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{Length: DefaultLength, TTL: ttl, Cost: bcrypt.DefaultCost}
}

// Issue generates a new code that expires TTL after now.
func (i *Issuer) Issue(now time.Time) (Code, error) {
	length := i.Length
	if length <= 0 {
		length = DefaultLength
	}
	code, err := randomDigits(length)
	if err != nil {
		return Code{}, fmt.Errorf("generate otp: %w", err)
	}

	cost := i.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), cost)
	if err != nil {
		return Code{}, fmt.Errorf("hash otp: %w", err)
	}

	return Code{Code: code, Hash: string(hash), ExpiresAt: now.Add(i.TTL)}, nil
}

// Verify reports whether submitted matches storedHash and now is strictly
// before expiresAt. An empty hash never verifies.
func Verify(submitted, storedHash string, expiresAt, now time.Time) bool {
	if submitted == "" || storedHash == "" {
		return false
	}
	if !now.Before(expiresAt) {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(submitted))
	return err == nil
}

var errBadLength = errors.New("otp length must be between 1 and 18")

func randomDigits(n int) (string, error) {
	if n < 1 || n > 18 {
		return "", errBadLength
	}
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	v, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", n, v.Int64()), nil
}
