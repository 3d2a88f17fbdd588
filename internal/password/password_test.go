package password

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/furnihome/furnihome-backend/internal/errordata"
)

// plainMatch treats the "hash" as the plain password so tests stay fast.
func plainMatch(hash, plain string) bool { return hash == plain }

func strPtr(s string) *string { return &s }

type rejectAll struct{ called bool }

func (r *rejectAll) Check(string, ...string) error {
	r.called = true
	return errors.New("nope")
}

func TestValidateOrder(t *testing.T) {
	policy := NewPolicy(nil, plainMatch)
	tests := []struct {
		name string
		in   Input
		want *errordata.AppError
	}{
		{
			name: "current mismatch wins over everything",
			in:   Input{Email: "a@b.co", CurrentHash: "Abc12345", Current: strPtr("wrong"), New: "x", Confirm: "y"},
			want: errordata.ErrCurrentPasswordMismatch,
		},
		{
			name: "unchanged",
			in:   Input{Email: "a@b.co", CurrentHash: "Abc12345", Current: strPtr("Abc12345"), New: "Abc12345", Confirm: "Abc12345"},
			want: errordata.ErrPasswordUnchanged,
		},
		{
			name: "unchanged on reset path compares against hash",
			in:   Input{Email: "a@b.co", CurrentHash: "Abc12345", New: "Abc12345", Confirm: "Abc12345"},
			want: errordata.ErrPasswordUnchanged,
		},
		{
			name: "confirmation mismatch before strength",
			in:   Input{Email: "a@b.co", CurrentHash: "Abc12345", Current: strPtr("Abc12345"), New: "short", Confirm: "other"},
			want: errordata.ErrConfirmationMismatch,
		},
		{
			name: "equals email",
			in:   Input{Email: "jane1@example.com", New: "JANE1@example.com", Confirm: "JANE1@example.com"},
			want: errordata.ErrPasswordEqualsIdentity,
		},
		{
			name: "too short even with digits and letters",
			in:   Input{Email: "a@b.co", New: "Ab1cd2", Confirm: "Ab1cd2"},
			want: errordata.ErrTooShort,
		},
		{
			name: "missing digit",
			in:   Input{Email: "a@b.co", New: "Abcdefghij", Confirm: "Abcdefghij"},
			want: errordata.ErrMissingDigit,
		},
		{
			name: "missing letter",
			in:   Input{Email: "a@b.co", New: "1234567890!", Confirm: "1234567890!"},
			want: errordata.ErrMissingLetter,
		},
		{
			name: "common password",
			in:   Input{Email: "a@b.co", New: "Password123", Confirm: "Password123"},
			want: errordata.ErrWeakPassword,
		},
		{
			name: "built on the email",
			in:   Input{Email: "marguerite@example.com", New: "Marguerite1990", Confirm: "Marguerite1990"},
			want: errordata.ErrWeakPassword,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.Validate(tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateAccepts(t *testing.T) {
	policy := NewPolicy(nil, plainMatch)
	err := policy.Validate(Input{
		Email:       "jane@example.com",
		CurrentHash: "Abc12345",
		Current:     strPtr("Abc12345"),
		New:         "Walnut-Table-42",
		Confirm:     "Walnut-Table-42",
	})
	assert.NoError(t, err)
}

func TestValidateAttributesField(t *testing.T) {
	policy := NewPolicy(nil, plainMatch)
	err := policy.Validate(Input{New: "abc", Confirm: "abd"})
	var appErr *errordata.AppError
	if assert.True(t, errors.As(err, &appErr)) {
		assert.Equal(t, "new_password_confirm", appErr.Field)
	}
}

func TestCheckerRunsLast(t *testing.T) {
	checker := &rejectAll{}
	policy := NewPolicy(checker, plainMatch)

	err := policy.Validate(Input{New: "short1", Confirm: "short1"})
	assert.ErrorIs(t, err, errordata.ErrTooShort)
	assert.False(t, checker.called)

	err = policy.Validate(Input{New: "LongEnough1", Confirm: "LongEnough1"})
	assert.ErrorIs(t, err, errordata.ErrWeakPassword)
	assert.True(t, checker.called)
}
