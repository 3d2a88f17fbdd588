package errordata

import (
	"errors"
	"fmt"
)

// Error codes are part of the public JSON contract.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeExpired            = "OTP_EXPIRED"
	CodeBlocked            = "OTP_BLOCKED"
	CodeMaxAttemptsReached = "OTP_MAX_ATTEMPTS_REACHED"
	CodeInvalidCode        = "OTP_INVALID_CODE"

	CodeCurrentPasswordMismatch = "CURRENT_PASSWORD_MISMATCH"
	CodePasswordUnchanged       = "PASSWORD_UNCHANGED"
	CodeConfirmationMismatch    = "CONFIRMATION_MISMATCH"
	CodePasswordEqualsIdentity  = "PASSWORD_EQUALS_IDENTITY"
	CodeTooShort                = "PASSWORD_TOO_SHORT"
	CodeMissingDigit            = "PASSWORD_MISSING_DIGIT"
	CodeMissingLetter           = "PASSWORD_MISSING_LETTER"
	CodeWeakPassword            = "PASSWORD_WEAK"

	CodeValidation         = "VALIDATION_ERROR"
	CodeEmailTaken         = "EMAIL_TAKEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountNotVerified = "ACCOUNT_NOT_VERIFIED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeConflict           = "CONFLICT"
	CodeInternal           = "INTERNAL_ERROR"
)

// AppError is a user-correctable failure with a stable code. Field names the
// request field the failure is attributable to, when there is one.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError with the same code, so callers can use
// errors.Is(err, errordata.ErrExpired) against errors built with New or WithField.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithField returns a copy attributed to field.
func (e *AppError) WithField(field string) *AppError {
	cp := *e
	cp.Field = field
	return &cp
}

func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func NewValidation(field, message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message, Field: field}
}

func Wrap(code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of the first AppError in err's chain, or CodeInternal.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

var (
	ErrNotFound           = New(CodeNotFound, "invalid or expired code")
	ErrExpired            = New(CodeExpired, "the code has expired, request a new one")
	ErrBlocked            = New(CodeBlocked, "too many failed attempts, try again in 15 minutes")
	ErrMaxAttemptsReached = New(CodeMaxAttemptsReached, "maximum attempts reached, try again in 15 minutes")
	ErrInvalidCode        = New(CodeInvalidCode, "invalid code")

	ErrCurrentPasswordMismatch = New(CodeCurrentPasswordMismatch, "current password is incorrect")
	ErrPasswordUnchanged       = New(CodePasswordUnchanged, "new password must differ from the old password")
	ErrConfirmationMismatch    = New(CodeConfirmationMismatch, "password confirmation does not match")
	ErrPasswordEqualsIdentity  = New(CodePasswordEqualsIdentity, "password must not be the same as the email")
	ErrTooShort                = New(CodeTooShort, "password must be at least 8 characters long")
	ErrMissingDigit            = New(CodeMissingDigit, "password must contain at least one digit")
	ErrMissingLetter           = New(CodeMissingLetter, "password must contain at least one letter")
	ErrWeakPassword            = New(CodeWeakPassword, "password is too common or too weak")

	ErrEmailTaken         = New(CodeEmailTaken, "email is already in use").WithField("email")
	ErrInvalidCredentials = New(CodeInvalidCredentials, "invalid email or password")
	ErrAccountNotVerified = New(CodeAccountNotVerified, "Account is not verified")
	ErrUnauthorized       = New(CodeUnauthorized, "missing or invalid token")
	ErrForbidden          = New(CodeForbidden, "insufficient permissions")
	ErrConflict           = New(CodeConflict, "resource already exists")
	ErrResourceNotFound   = New(CodeNotFound, "resource not found")
)
