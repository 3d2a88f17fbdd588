package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/furnihome/furnihome-backend/internal/logger"
	"github.com/furnihome/furnihome-backend/internal/types"
)

type FavoriteRepo interface {
	// CREATE
	Create(ctx context.Context, tx *gorm.DB, fav *types.Favorite) error

	// READ
	Get(ctx context.Context, tx *gorm.DB, userID, productID uuid.UUID) (*types.Favorite, error)
	ListLiked(ctx context.Context, tx *gorm.DB, userID uuid.UUID, page types.Page) ([]*types.Product, int64, error)
	LikedProductIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]bool, error)

	// UPDATE
	SetLiked(ctx context.Context, tx *gorm.DB, favID uuid.UUID, liked bool) error
	UnlikeAll(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
}

type favoriteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFavoriteRepo(db *gorm.DB, baseLog *logger.Logger) FavoriteRepo {
	repoLog := baseLog.With("repo", "FavoriteRepo")
	return &favoriteRepo{db: db, log: repoLog}
}

// ----------------------------------------------------------------
// CREATE
// ----------------------------------------------------------------

func (fr *favoriteRepo) Create(ctx context.Context, tx *gorm.DB, fav *types.Favorite) error {
	if err := conn(ctx, tx, fr.db).Omit("User", "Product").Create(fav).Error; err != nil {
		fr.log.Error("Failed to create favorite", "error", err)
		return err
	}
	return nil
}

// ----------------------------------------------------------------
// READ
// ----------------------------------------------------------------

// Get returns nil, nil when the user never liked the product.
func (fr *favoriteRepo) Get(ctx context.Context, tx *gorm.DB, userID, productID uuid.UUID) (*types.Favorite, error) {
	var fav types.Favorite
	err := conn(ctx, tx, fr.db).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&fav).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		fr.log.Error("Failed to fetch favorite", "error", err)
		return nil, err
	}
	return &fav, nil
}

func (fr *favoriteRepo) ListLiked(ctx context.Context, tx *gorm.DB, userID uuid.UUID, page types.Page) ([]*types.Product, int64, error) {
	q := conn(ctx, tx, fr.db).
		Model(&types.Product{}).
		Joins("JOIN favorite ON favorite.product_id = product.id").
		Where("favorite.user_id = ? AND favorite.is_liked = ?", userID, true).
		Session(&gorm.Session{})

	var count int64
	if err := q.Count(&count).Error; err != nil {
		fr.log.Error("Failed to count favorites", "error", err)
		return nil, 0, err
	}
	var results []*types.Product
	if err := q.
		Select("product.*").
		Preload("RoomCategory").
		Preload("ProductCategory").
		Preload("Manufacturer").
		Order("favorite.updated_at DESC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&results).Error; err != nil {
		fr.log.Error("Failed to list favorites", "error", err)
		return nil, 0, err
	}
	return results, count, nil
}

// LikedProductIDs returns the subset of productIDs the user currently likes.
func (fr *favoriteRepo) LikedProductIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	liked := make(map[uuid.UUID]bool, len(productIDs))
	if len(productIDs) == 0 {
		return liked, nil
	}
	var ids []uuid.UUID
	if err := conn(ctx, tx, fr.db).
		Model(&types.Favorite{}).
		Where("user_id = ? AND is_liked = ? AND product_id IN ?", userID, true, productIDs).
		Pluck("product_id", &ids).Error; err != nil {
		fr.log.Error("Failed to fetch liked product ids", "error", err)
		return nil, err
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

// ----------------------------------------------------------------
// UPDATE
// ----------------------------------------------------------------

func (fr *favoriteRepo) SetLiked(ctx context.Context, tx *gorm.DB, favID uuid.UUID, liked bool) error {
	if err := conn(ctx, tx, fr.db).
		Model(&types.Favorite{}).
		Where("id = ?", favID).
		Update("is_liked", liked).Error; err != nil {
		fr.log.Error("Failed to set favorite liked flag", "error", err)
		return err
	}
	return nil
}

// UnlikeAll clears every like of the user and reports how many flipped.
func (fr *favoriteRepo) UnlikeAll(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	res := conn(ctx, tx, fr.db).
		Model(&types.Favorite{}).
		Where("user_id = ? AND is_liked = ?", userID, true).
		Update("is_liked", false)
	if res.Error != nil {
		fr.log.Error("Failed to clear favorites", "error", res.Error)
		return 0, res.Error
	}
	fr.log.Info("Cleared favorites", "userID", userID, "rows", res.RowsAffected)
	return res.RowsAffected, nil
}
