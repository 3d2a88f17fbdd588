package otp

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/furnihome/furnihome-backend/internal/errordata"
	"github.com/furnihome/furnihome-backend/internal/types"
)

type State int

const (
	StateActive State = iota
	StateExpired
	StateBlocked
	StateStaleBlock
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateExpired:
		return "expired"
	case StateBlocked:
		return "blocked"
	case StateStaleBlock:
		return "stale_block"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// IsStale reports whether the record has not been touched for longer than
// the lockout window.
func IsStale(rec *types.OTPRecord, now time.Time, p Policy) bool {
	return rec.UpdatedAt.Add(p.LockoutWindow).Before(now)
}

// Classify derives the state of a stored record at now.
func Classify(rec *types.OTPRecord, now time.Time, p Policy) State {
	locked := rec.Blocked || rec.AttemptsRemaining <= 0
	switch {
	case locked && IsStale(rec, now, p):
		return StateStaleBlock
	case locked:
		return StateBlocked
	case now.After(rec.ExpiresAt):
		return StateExpired
	default:
		return StateActive
	}
}

// Issue loads a fresh code into rec.
func Issue(rec *types.OTPRecord, code int, now time.Time, p Policy) {
	rec.Code = code
	rec.AttemptsRemaining = p.MaxAttempts
	rec.Blocked = false
	rec.ExpiresAt = now.Add(p.TTL)
	rec.UpdatedAt = now
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
}

// Unblock is the stale-lockout recovery: once the lockout window has passed
// since the last update, the record returns to active with a full attempt
// budget, whatever its stored blocked flag says. Returns whether rec changed.
func Unblock(rec *types.OTPRecord, now time.Time, p Policy) bool {
	if !IsStale(rec, now, p) {
		return false
	}
	rec.Blocked = false
	rec.AttemptsRemaining = p.MaxAttempts
	rec.UpdatedAt = now
	return true
}

// Evaluate runs one verification attempt against rec. The returned bool
// reports whether rec was mutated and must be persisted; it can be true on
// failure, since failed attempts spend the attempt budget.
func Evaluate(rec *types.OTPRecord, submitted int, now time.Time, p Policy) (bool, error) {
	changed := Unblock(rec, now, p)

	switch Classify(rec, now, p) {
	case StateBlocked, StateStaleBlock:
		if rec.Blocked {
			return changed, errordata.ErrBlocked
		}
		rec.AttemptsRemaining = 0
		rec.Blocked = true
		rec.UpdatedAt = now
		return true, errordata.ErrMaxAttemptsReached
	case StateExpired:
		spendAttempt(rec, now)
		return true, errordata.ErrExpired
	}
	if !codesEqual(rec.Code, submitted) {
		spendAttempt(rec, now)
		return true, errordata.ErrInvalidCode
	}
	return changed, nil
}

// Reset restores the attempt budget after a successful confirmation and
// retires the current code.
func Reset(rec *types.OTPRecord, now time.Time, p Policy) {
	rec.AttemptsRemaining = p.MaxAttempts
	rec.Blocked = false
	// strictly before now, so Evaluate treats the retired code as expired
	rec.ExpiresAt = now.Add(-time.Nanosecond)
	rec.UpdatedAt = now
}

func spendAttempt(rec *types.OTPRecord, now time.Time) {
	rec.AttemptsRemaining--
	if rec.AttemptsRemaining <= 0 {
		rec.AttemptsRemaining = 0
		rec.Blocked = true
	}
	rec.UpdatedAt = now
}

func codesEqual(stored, submitted int) bool {
	a := []byte(fmt.Sprintf("%06d", stored))
	b := []byte(fmt.Sprintf("%06d", submitted))
	return subtle.ConstantTimeCompare(a, b) == 1
}
