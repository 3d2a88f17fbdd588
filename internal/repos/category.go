package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/furnihome/furnihome-backend/internal/logger"
	"github.com/furnihome/furnihome-backend/internal/types"
)

// CategoryRepo covers both room and product categories; they share a shape
// but live in separate tables.
type CategoryRepo interface {
	// CREATE
	UpsertRoomCategories(ctx context.Context, tx *gorm.DB, cats []*types.RoomCategory) error
	UpsertProductCategories(ctx context.Context, tx *gorm.DB, cats []*types.ProductCategory) error

	// READ
	ListRoomCategories(ctx context.Context, tx *gorm.DB) ([]*types.RoomCategory, error)
	ListProductCategories(ctx context.Context, tx *gorm.DB) ([]*types.ProductCategory, error)
	GetRoomCategoriesBySlugs(ctx context.Context, tx *gorm.DB, slugs []string) ([]*types.RoomCategory, error)
	GetProductCategoriesBySlugs(ctx context.Context, tx *gorm.DB, slugs []string) ([]*types.ProductCategory, error)
}

type categoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	repoLog := baseLog.With("repo", "CategoryRepo")
	return &categoryRepo{db: db, log: repoLog}
}

// ----------------------------------------------------------------
// CREATE
// ----------------------------------------------------------------

func (cr *categoryRepo) UpsertRoomCategories(ctx context.Context, tx *gorm.DB, cats []*types.RoomCategory) error {
	if len(cats) == 0 {
		return nil
	}
	if err := conn(ctx, tx, cr.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "image_url"}),
		}).
		Create(&cats).Error; err != nil {
		cr.log.Error("Failed to upsert room categories", "error", err)
		return err
	}
	cr.log.Info("Upserted room categories", "count", len(cats))
	return nil
}

func (cr *categoryRepo) UpsertProductCategories(ctx context.Context, tx *gorm.DB, cats []*types.ProductCategory) error {
	if len(cats) == 0 {
		return nil
	}
	if err := conn(ctx, tx, cr.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "image_url"}),
		}).
		Create(&cats).Error; err != nil {
		cr.log.Error("Failed to upsert product categories", "error", err)
		return err
	}
	cr.log.Info("Upserted product categories", "count", len(cats))
	return nil
}

// ----------------------------------------------------------------
// READ
// ----------------------------------------------------------------

func (cr *categoryRepo) ListRoomCategories(ctx context.Context, tx *gorm.DB) ([]*types.RoomCategory, error) {
	var results []*types.RoomCategory
	if err := conn(ctx, tx, cr.db).Order("name").Find(&results).Error; err != nil {
		cr.log.Error("Failed to list room categories", "error", err)
		return nil, err
	}
	return results, nil
}

func (cr *categoryRepo) ListProductCategories(ctx context.Context, tx *gorm.DB) ([]*types.ProductCategory, error) {
	var results []*types.ProductCategory
	if err := conn(ctx, tx, cr.db).Order("name").Find(&results).Error; err != nil {
		cr.log.Error("Failed to list product categories", "error", err)
		return nil, err
	}
	return results, nil
}

func (cr *categoryRepo) GetRoomCategoriesBySlugs(ctx context.Context, tx *gorm.DB, slugs []string) ([]*types.RoomCategory, error) {
	var results []*types.RoomCategory
	if len(slugs) == 0 {
		return results, nil
	}
	if err := conn(ctx, tx, cr.db).Where("slug IN ?", slugs).Find(&results).Error; err != nil {
		cr.log.Error("Failed to fetch room categories by slugs", "error", err)
		return nil, err
	}
	return results, nil
}

func (cr *categoryRepo) GetProductCategoriesBySlugs(ctx context.Context, tx *gorm.DB, slugs []string) ([]*types.ProductCategory, error) {
	var results []*types.ProductCategory
	if len(slugs) == 0 {
		return results, nil
	}
	if err := conn(ctx, tx, cr.db).Where("slug IN ?", slugs).Find(&results).Error; err != nil {
		cr.log.Error("Failed to fetch product categories by slugs", "error", err)
		return nil, err
	}
	return results, nil
}
