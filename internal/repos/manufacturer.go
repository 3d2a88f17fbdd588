package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/furnihome/furnihome-backend/internal/logger"
	"github.com/furnihome/furnihome-backend/internal/types"
)

type ManufacturerRepo interface {
	// CREATE
	Upsert(ctx context.Context, tx *gorm.DB, manufacturers []*types.Manufacturer) error

	// READ
	List(ctx context.Context, tx *gorm.DB) ([]*types.Manufacturer, error)
	GetBySlugs(ctx context.Context, tx *gorm.DB, slugs []string) ([]*types.Manufacturer, error)
}

type manufacturerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewManufacturerRepo(db *gorm.DB, baseLog *logger.Logger) ManufacturerRepo {
	repoLog := baseLog.With("repo", "ManufacturerRepo")
	return &manufacturerRepo{db: db, log: repoLog}
}

func (mr *manufacturerRepo) Upsert(ctx context.Context, tx *gorm.DB, manufacturers []*types.Manufacturer) error {
	if len(manufacturers) == 0 {
		return nil
	}
	if err := conn(ctx, tx, mr.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "description", "logo_url", "instagram_url", "telegram_url",
			}),
		}).
		Create(&manufacturers).Error; err != nil {
		mr.log.Error("Failed to upsert manufacturers", "error", err)
		return err
	}
	mr.log.Info("Upserted manufacturers", "count", len(manufacturers))
	return nil
}

func (mr *manufacturerRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Manufacturer, error) {
	var results []*types.Manufacturer
	if err := conn(ctx, tx, mr.db).Order("name").Find(&results).Error; err != nil {
		mr.log.Error("Failed to list manufacturers", "error", err)
		return nil, err
	}
	return results, nil
}

func (mr *manufacturerRepo) GetBySlugs(ctx context.Context, tx *gorm.DB, slugs []string) ([]*types.Manufacturer, error) {
	var results []*types.Manufacturer
	if len(slugs) == 0 {
		return results, nil
	}
	if err := conn(ctx, tx, mr.db).Where("slug IN ?", slugs).Find(&results).Error; err != nil {
		mr.log.Error("Failed to fetch manufacturers by slugs", "error", err)
		return nil, err
	}
	return results, nil
}
