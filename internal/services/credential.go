package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/furnihome/furnihome-backend/internal/logger"
	"github.com/furnihome/furnihome-backend/internal/password"
	"github.com/furnihome/furnihome-backend/internal/repos"
	"github.com/furnihome/furnihome-backend/internal/types"
	"github.com/furnihome/furnihome-backend/internal/utils"
)

// CredentialService replaces a user's password hash after it passes the
// password policy. Issued tokens are left untouched.
type CredentialService interface {
	ChangePassword(ctx context.Context, user *types.User, current, newPassword, confirm string) error
	ResetPassword(ctx context.Context, tx *gorm.DB, user *types.User, newPassword, confirm string) (Followup, error)
	// Policy exposes the validator so registration applies the same rules.
	Policy() *password.Policy
}

type credentialService struct {
	log      *logger.Logger
	userRepo repos.UserRepo
	policy   *password.Policy
	notifier Notifier
}

func NewCredentialService(log *logger.Logger, userRepo repos.UserRepo, checker password.StrengthChecker, notifier Notifier) CredentialService {
	if notifier == nil {
		notifier = NewLogNotifier(log)
	}
	return &credentialService{
		log:      log.With("service", "CredentialService"),
		userRepo: userRepo,
		policy:   password.NewPolicy(checker, utils.CheckPassword),
		notifier: notifier,
	}
}

func (cs *credentialService) Policy() *password.Policy {
	return cs.policy
}

func (cs *credentialService) ChangePassword(ctx context.Context, user *types.User, current, newPassword, confirm string) error {
	cs.log.Info("Starting ChangePassword now...", "userID", user.ID)
	if err := cs.policy.Validate(password.Input{
		Email:       user.Email,
		CurrentHash: user.Password,
		Current:     &current,
		New:         newPassword,
		Confirm:     confirm,
	}); err != nil {
		cs.log.Info("Password change rejected", "userID", user.ID, "error", err)
		return err
	}
	if err := cs.store(ctx, nil, user, newPassword); err != nil {
		return err
	}
	cs.notifier.Send(ctx, "Password Change Confirmation",
		"Your password has been changed successfully. If this was not you, reset your password immediately.", user.Email)
	return nil
}

// ResetPassword stores the new hash inside tx. The confirmation email is
// returned as a Followup for the caller to send once tx commits.
func (cs *credentialService) ResetPassword(ctx context.Context, tx *gorm.DB, user *types.User, newPassword, confirm string) (Followup, error) {
	cs.log.Info("Starting ResetPassword now...", "userID", user.ID)
	if err := cs.policy.Validate(password.Input{
		Email:       user.Email,
		CurrentHash: user.Password,
		New:         newPassword,
		Confirm:     confirm,
	}); err != nil {
		cs.log.Info("Password reset rejected", "userID", user.ID, "error", err)
		return nil, err
	}
	if err := cs.store(ctx, tx, user, newPassword); err != nil {
		return nil, err
	}
	email := user.Email
	return func(ctx context.Context) {
		cs.notifier.Send(ctx, "Password Reset Confirmation",
			"Your password has been reset successfully. You can now log in with your new password.", email)
	}, nil
}

func (cs *credentialService) store(ctx context.Context, tx *gorm.DB, user *types.User, plain string) error {
	hash, err := utils.HashPassword(cs.log, plain)
	if err != nil {
		return err
	}
	if err := cs.userRepo.UpdatePassword(ctx, tx, user.ID, hash); err != nil {
		return fmt.Errorf("failed to store password: %w", err)
	}
	user.Password = hash
	cs.log.Info("Password updated", "userID", user.ID)
	return nil
}
