package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/furnihome/furnihome-backend/internal/logger"
	"github.com/furnihome/furnihome-backend/internal/repos"
	"github.com/furnihome/furnihome-backend/internal/types"
)

// AccountService owns the inactive -> active transition of a user.
type AccountService interface {
	Activate(ctx context.Context, tx *gorm.DB, user *types.User) (Followup, error)
}

type accountService struct {
	log       *logger.Logger
	userRepo  repos.UserRepo
	notifier  Notifier
	publisher EventPublisher
}

func NewAccountService(log *logger.Logger, userRepo repos.UserRepo, notifier Notifier, publisher EventPublisher) AccountService {
	if notifier == nil {
		notifier = NewLogNotifier(log)
	}
	if publisher == nil {
		publisher = NopPublisher
	}
	return &accountService{
		log:       log.With("service", "AccountService"),
		userRepo:  userRepo,
		notifier:  notifier,
		publisher: publisher,
	}
}

// Activate marks the user active inside tx. It is reached only from a
// successful registration code confirmation. The confirmation email and the
// realtime event are returned as a Followup to run after commit.
func (as *accountService) Activate(ctx context.Context, tx *gorm.DB, user *types.User) (Followup, error) {
	if err := as.userRepo.SetActive(ctx, tx, user.ID, true); err != nil {
		return nil, fmt.Errorf("failed to activate account: %w", err)
	}
	user.IsActive = true
	userID, email := user.ID, user.Email
	return func(ctx context.Context) {
		as.log.Info("Account activated", "userID", userID)
		as.notifier.Send(ctx, "Account Confirmation", "Your account confirmed successfully. You can now log in.", email)
		as.publisher.PublishToUser(ctx, userID, EventAccountActivated, map[string]interface{}{"email": email})
	}, nil
}
