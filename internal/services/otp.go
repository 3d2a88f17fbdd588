package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/furnihome/furnihome-backend/internal/errordata"
	"github.com/furnihome/furnihome-backend/internal/logger"
	"github.com/furnihome/furnihome-backend/internal/otp"
	"github.com/furnihome/furnihome-backend/internal/repos"
	"github.com/furnihome/furnihome-backend/internal/types"
)

const otpSubject = "OTP Verification"

type OTPService interface {
	Issue(ctx context.Context, user *types.User) (int, error)
	Store(ctx context.Context, tx *gorm.DB, user *types.User) (int, error)
	Deliver(ctx context.Context, user *types.User, code int)
	Verify(ctx context.Context, userID uuid.UUID, code int) error
	Reset(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
	Redeem(ctx context.Context, userID uuid.UUID, code int, onSuccess RedeemFunc) error
}

// RedeemFunc runs inside the redeem transaction. The returned Followup is
// invoked only after that transaction commits.
type RedeemFunc func(tx *gorm.DB) (Followup, error)

type otpService struct {
	log         *logger.Logger
	txm         repos.TxManager
	otpRepo     repos.OTPRepo
	notifier    Notifier
	textService TextService
	smsEnabled  bool
	policy      otp.Policy
	clock       otp.Clock
	generate    func() (int, error)
}

// NewOTPService wires the code lifecycle. textService may be nil, in which
// case no SMS copy is sent regardless of smsEnabled.
func NewOTPService(
	log *logger.Logger,
	txm repos.TxManager,
	otpRepo repos.OTPRepo,
	notifier Notifier,
	textService TextService,
	smsEnabled bool,
	policy otp.Policy,
	clock otp.Clock,
) OTPService {
	if notifier == nil {
		notifier = NewLogNotifier(log)
	}
	if clock == nil {
		clock = otp.SystemClock
	}
	return &otpService{
		log:         log.With("service", "OTPService"),
		txm:         txm,
		otpRepo:     otpRepo,
		notifier:    notifier,
		textService: textService,
		smsEnabled:  smsEnabled,
		policy:      policy,
		clock:       clock,
		generate:    otp.GenerateCode,
	}
}

//----------------------------------------------------------------------------------------------------------------------
// Issue
//----------------------------------------------------------------------------------------------------------------------

// Issue stores a fresh code and sends it. Only a persistence failure is
// returned; delivery problems are logged.
func (ots *otpService) Issue(ctx context.Context, user *types.User) (int, error) {
	code, err := ots.Store(ctx, nil, user)
	if err != nil {
		return 0, err
	}
	ots.Deliver(ctx, user, code)
	return code, nil
}

// Store overwrites the user's record with a fresh code without sending it.
// Callers holding tx call Deliver after commit.
func (ots *otpService) Store(ctx context.Context, tx *gorm.DB, user *types.User) (int, error) {
	ots.log.Info("Starting Store OTP now...", "userID", user.ID)
	code, err := ots.generate()
	if err != nil {
		return 0, err
	}
	rec := &types.OTPRecord{UserID: user.ID}
	otp.Issue(rec, code, ots.clock.Now(), ots.policy)
	if err := ots.otpRepo.Upsert(ctx, tx, rec); err != nil {
		return 0, fmt.Errorf("failed to store otp: %w", err)
	}
	ots.log.Info("OTP stored", "userID", user.ID, "expiresAt", rec.ExpiresAt)
	return code, nil
}

func (ots *otpService) Deliver(ctx context.Context, user *types.User, code int) {
	body := fmt.Sprintf("Your OTP is %d. It will expire in %s. Do not share it with anyone.", code, humanDuration(ots.policy.TTL))
	ots.notifier.Send(ctx, otpSubject, body, user.Email)
	if ots.smsEnabled && ots.textService != nil && user.PhoneNumber != nil && *user.PhoneNumber != "" {
		if err := ots.textService.SendText(ctx, *user.PhoneNumber, body); err != nil {
			ots.log.Warn("Failed to send OTP text, continuing", "userID", user.ID, "error", err)
		}
	}
}

//----------------------------------------------------------------------------------------------------------------------
// Verify, Redeem, Reset
//----------------------------------------------------------------------------------------------------------------------

// Verify checks code without consuming it.
func (ots *otpService) Verify(ctx context.Context, userID uuid.UUID, code int) error {
	return ots.redeem(ctx, userID, code, nil, false)
}

// Redeem verifies code and, on success, runs onSuccess and retires the code
// in the same transaction. A failed check still commits the spent attempt.
// The Followup from onSuccess runs only once the transaction has committed.
func (ots *otpService) Redeem(ctx context.Context, userID uuid.UUID, code int, onSuccess RedeemFunc) error {
	return ots.redeem(ctx, userID, code, onSuccess, true)
}

func (ots *otpService) redeem(ctx context.Context, userID uuid.UUID, code int, onSuccess RedeemFunc, reset bool) error {
	var (
		outcome  error
		followup Followup
	)
	err := ots.txm.WithTx(ctx, func(tx *gorm.DB) error {
		rec, err := ots.otpRepo.LockByUserID(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("failed to load otp: %w", err)
		}
		if rec == nil {
			ots.log.Debug("No otp record", "userID", userID)
			outcome = errordata.ErrNotFound.WithField("otp")
			return nil
		}

		now := ots.clock.Now()
		changed, vErr := otp.Evaluate(rec, code, now, ots.policy)
		if vErr != nil {
			ots.log.Info("OTP check failed", "userID", userID, "code", errordata.CodeOf(vErr), "attemptsRemaining", rec.AttemptsRemaining)
			if changed {
				if err := ots.otpRepo.Save(ctx, tx, rec); err != nil {
					return fmt.Errorf("failed to save otp attempt: %w", err)
				}
			}
			outcome = vErr
			return nil
		}

		if onSuccess != nil {
			f, err := onSuccess(tx)
			if err != nil {
				return err
			}
			followup = f
		}
		if reset {
			otp.Reset(rec, now, ots.policy)
			changed = true
		}
		if changed {
			if err := ots.otpRepo.Save(ctx, tx, rec); err != nil {
				return fmt.Errorf("failed to save otp: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		ots.log.Warn("OTP transaction failed", "userID", userID, "error", err)
		return err
	}
	if outcome != nil {
		return outcome
	}
	runFollowup(ctx, followup)
	return nil
}

func (ots *otpService) Reset(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	rec, err := ots.otpRepo.GetByUserID(ctx, tx, userID)
	if err != nil {
		return fmt.Errorf("failed to load otp: %w", err)
	}
	if rec == nil {
		return errordata.ErrNotFound.WithField("otp")
	}
	otp.Reset(rec, ots.clock.Now(), ots.policy)
	if err := ots.otpRepo.Save(ctx, tx, rec); err != nil {
		return fmt.Errorf("failed to reset otp: %w", err)
	}
	return nil
}

func humanDuration(d time.Duration) string {
	if d >= time.Minute && d%time.Minute == 0 {
		if m := int(d / time.Minute); m != 1 {
			return fmt.Sprintf("%d minutes", m)
		}
		return "1 minute"
	}
	return fmt.Sprintf("%d seconds", int(d/time.Second))
}
