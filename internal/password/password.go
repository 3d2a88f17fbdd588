// Package password validates new passwords before they are hashed.
package password

import (
	"bufio"
	_ "embed"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/furnihome/furnihome-backend/internal/errordata"
)

const MinLength = 8

//go:embed common.txt
var commonList string

// StrengthChecker is the last line of validation. It returns a non-nil
// error when the password is guessable.
type StrengthChecker interface {
	Check(password string, attributes ...string) error
}

// HashMatcher reports whether plain matches a stored hash.
type HashMatcher func(hash, plain string) bool

// Input describes one password change. Current is nil on the reset path,
// where the caller has proven identity with a code instead.
type Input struct {
	Email       string
	CurrentHash string
	Current     *string
	New         string
	Confirm     string
}

type Policy struct {
	checker StrengthChecker
	match   HashMatcher
}

func NewPolicy(checker StrengthChecker, match HashMatcher) *Policy {
	if checker == nil {
		checker = NewCommonChecker()
	}
	return &Policy{checker: checker, match: match}
}

// Validate applies the rules in order and returns the first violation.
func (p *Policy) Validate(in Input) error {
	if in.Current != nil && !p.matches(in.CurrentHash, *in.Current) {
		return errordata.ErrCurrentPasswordMismatch.WithField("current_password")
	}
	if p.unchanged(in) {
		return errordata.ErrPasswordUnchanged.WithField("new_password")
	}
	if in.Confirm != in.New {
		return errordata.ErrConfirmationMismatch.WithField("new_password_confirm")
	}
	if in.Email != "" && strings.EqualFold(strings.TrimSpace(in.New), strings.TrimSpace(in.Email)) {
		return errordata.ErrPasswordEqualsIdentity.WithField("new_password")
	}
	if utf8.RuneCountInString(in.New) < MinLength {
		return errordata.ErrTooShort.WithField("new_password")
	}
	if !strings.ContainsFunc(in.New, unicode.IsDigit) {
		return errordata.ErrMissingDigit.WithField("new_password")
	}
	if !strings.ContainsFunc(in.New, unicode.IsLetter) {
		return errordata.ErrMissingLetter.WithField("new_password")
	}
	if err := p.checker.Check(in.New, in.Email); err != nil {
		return errordata.Wrap(errordata.CodeWeakPassword, errordata.ErrWeakPassword.Message, err).WithField("new_password")
	}
	return nil
}

func (p *Policy) unchanged(in Input) bool {
	if in.Current != nil {
		return in.New == *in.Current
	}
	return in.CurrentHash != "" && p.matches(in.CurrentHash, in.New)
}

func (p *Policy) matches(hash, plain string) bool {
	if p.match == nil {
		return false
	}
	return p.match(hash, plain)
}

type commonChecker struct {
	common map[string]struct{}
}

// NewCommonChecker rejects well-known passwords and passwords built around
// the local part of the account email.
func NewCommonChecker() StrengthChecker {
	set := make(map[string]struct{})
	scanner := bufio.NewScanner(strings.NewReader(commonList))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			set[strings.ToLower(line)] = struct{}{}
		}
	}
	return &commonChecker{common: set}
}

func (c *commonChecker) Check(password string, attributes ...string) error {
	lowered := strings.ToLower(password)
	if _, ok := c.common[lowered]; ok {
		return errWeak("password is too common")
	}
	for _, attr := range attributes {
		local := strings.ToLower(strings.TrimSpace(attr))
		if at := strings.IndexByte(local, '@'); at >= 0 {
			local = local[:at]
		}
		if len(local) >= 4 && strings.Contains(lowered, local) {
			return errWeak("password is too similar to the email")
		}
	}
	return nil
}

type errWeak string

func (e errWeak) Error() string { return string(e) }
