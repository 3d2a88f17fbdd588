package utils

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/furnihome/furnihome-backend/internal/errordata"
	"github.com/furnihome/furnihome-backend/internal/logger"
	"github.com/furnihome/furnihome-backend/internal/normalization"
	"github.com/furnihome/furnihome-backend/internal/types"
)

func HashPassword(log *logger.Logger, plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		log.Warn("Failure to hash password. Returning error", "error", err)
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword reports whether plain matches the stored bcrypt hash.
func CheckPassword(hash, plain string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

func NormalizeUserFields(user *types.User) {
	user.Email = normalization.ParseEmail(user.Email)
	user.PhoneNumber = normalization.ParseInputStringPtr(user.PhoneNumber)
	user.FirstName = normalization.ParseInputString(user.FirstName)
	user.LastName = normalization.ParseInputString(user.LastName)
}

// ValidateRegistrationInput checks the fields a registration cannot proceed without.
// Password strength is checked separately by the password policy.
func ValidateRegistrationInput(log *logger.Logger, user *types.User, password string) error {
	if user == nil {
		log.Warn("User is nil, cannot proceed further. Returning error")
		return errordata.NewValidation("", "no user given")
	}
	if user.Email == "" {
		log.Warn("Email is empty, cannot proceed further. Returning error")
		return errordata.NewValidation("email", "an email is required to register")
	}
	if password == "" {
		log.Warn("Password is empty, cannot proceed further. Returning error")
		return errordata.NewValidation("password", "a password is required to register")
	}
	if user.FirstName == "" {
		log.Warn("First Name is empty, cannot proceed further. Returning error")
		return errordata.NewValidation("first_name", "a first name is required to register")
	}
	if user.LastName == "" {
		log.Warn("Last Name is empty, cannot proceed further. Returning error")
		return errordata.NewValidation("last_name", "a last name is required to register")
	}
	return nil
}

func ValidateLoginInput(log *logger.Logger, email, password string) error {
	if email == "" {
		log.Warn("Email is an empty string, Cannot proceed.")
		return errordata.NewValidation("email", "email is required")
	}
	if password == "" {
		log.Warn("Password is an empty string, Cannot proceed.")
		return errordata.NewValidation("password", "password is required")
	}
	return nil
}
