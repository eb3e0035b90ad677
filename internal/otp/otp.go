package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"
)

// ErrNotFound is returned when no pending code exists for an email.
var ErrNotFound = errors.New("no pending code")

// Entry is a pending one-time code.
type Entry struct {
	Code      string
	ExpiresAt time.Time
}

// Expired reports whether the entry is no longer usable at now.
func (e Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Matches compares code in constant time.
func (e Entry) Matches(code string) bool {
	return subtle.ConstantTimeCompare([]byte(e.Code), []byte(code)) == 1
}

// Store keeps pending codes keyed by email.
type Store interface {
	Put(ctx context.Context, email string, entry Entry) error
	Get(ctx context.Context, email string) (Entry, error)
	Delete(ctx context.Context, email string) error
}

// Generate returns a random six digit code.
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
