// Package cryptox holds the password and one-time-code primitives used by the
// development backend.
package cryptox

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// OtpLength is the number of decimal digits in a one-time code.
const OtpLength = 6

// ErrMismatch is returned when a secret does not match its hash.
var ErrMismatch = errors.New("secret does not match")

// HashSecret returns the bcrypt hash of secret.
//
// bcrypt only looks at the first 72 bytes; longer inputs are rejected by the
// library with bcrypt.ErrPasswordTooLong.
func HashSecret(secret []byte) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword(secret, bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash secret: %w", err)
	}
	return hash, nil
}

// CheckSecret compares secret with a hash produced by HashSecret. It returns
// ErrMismatch when they differ and a wrapped error for a malformed hash.
func CheckSecret(hash, secret []byte) error {
	err := bcrypt.CompareHashAndPassword(hash, secret)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrMismatch
	default:
		return fmt.Errorf("check secret: %w", err)
	}
}

// GenerateOtp returns a uniformly random numeric code of OtpLength digits,
// zero-padded.
func GenerateOtp() (string, error) {
	limit := big.NewInt(1)
	for range OtpLength {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", OtpLength, n.Int64()), nil
}
