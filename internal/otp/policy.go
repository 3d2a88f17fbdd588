// Package otp holds the one-time-password lockout state machine. Functions
// here mutate a types.OTPRecord in memory; persisting it is the caller's job.
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	DefaultMaxAttempts   = 3
	DefaultTTL           = 2 * time.Minute
	DefaultLockoutWindow = 15 * time.Minute

	codeMin   = 100000
	codeRange = 900000
)

type Policy struct {
	MaxAttempts   int
	TTL           time.Duration
	LockoutWindow time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   DefaultMaxAttempts,
		TTL:           DefaultTTL,
		LockoutWindow: DefaultLockoutWindow,
	}
}

// Clock is the time source for every expiry and staleness comparison.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock reads the wall clock in UTC.
var SystemClock Clock = systemClock{}

// GenerateCode returns a uniformly random code in [100000, 999999].
func GenerateCode() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeRange))
	if err != nil {
		return 0, fmt.Errorf("failed to generate otp code: %w", err)
	}
	return int(n.Int64()) + codeMin, nil
}
