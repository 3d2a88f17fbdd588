package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/furnihome/furnihome-backend/internal/logger"
)

// TxManager runs fn inside a database transaction. Services depend on this
// rather than *gorm.DB so they can be exercised without a database.
type TxManager interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type txManager struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTxManager(db *gorm.DB, baseLog *logger.Logger) TxManager {
	return &txManager{db: db, log: baseLog.With("repo", "TxManager")}
}

func (tm *txManager) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := tm.db.WithContext(ctx).Transaction(fn)
	if err != nil {
		tm.log.Debug("Transaction rolled back", "error", err)
	}
	return err
}

// conn picks the caller's transaction when there is one.
func conn(ctx context.Context, tx, db *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
