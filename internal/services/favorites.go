package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/furnihome/furnihome-backend/internal/errordata"
	"github.com/furnihome/furnihome-backend/internal/logger"
	"github.com/furnihome/furnihome-backend/internal/repos"
	"github.com/furnihome/furnihome-backend/internal/types"
)

// FavoritesService manages the liked products of the authenticated user.
// Rows are never deleted, only flipped between liked and unliked.
type FavoritesService interface {
	List(ctx context.Context, page types.Page) (types.PageResult[*ProductView], error)
	Add(ctx context.Context, slug string) error
	Remove(ctx context.Context, slug string) error
	Clear(ctx context.Context) error
}

type favoritesService struct {
	log          *logger.Logger
	txm          repos.TxManager
	favoriteRepo repos.FavoriteRepo
	productRepo  repos.ProductRepo
	publisher    EventPublisher
}

func NewFavoritesService(
	log *logger.Logger,
	txm repos.TxManager,
	favoriteRepo repos.FavoriteRepo,
	productRepo repos.ProductRepo,
	publisher EventPublisher,
) FavoritesService {
	if publisher == nil {
		publisher = NopPublisher
	}
	return &favoritesService{
		log:          log.With("service", "FavoritesService"),
		txm:          txm,
		favoriteRepo: favoriteRepo,
		productRepo:  productRepo,
		publisher:    publisher,
	}
}

func (fs *favoritesService) List(ctx context.Context, page types.Page) (types.PageResult[*ProductView], error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return types.PageResult[*ProductView]{}, err
	}
	products, count, err := fs.favoriteRepo.ListLiked(ctx, nil, userID, page)
	if err != nil {
		return types.PageResult[*ProductView]{}, fmt.Errorf("failed to list favorites: %w", err)
	}
	views := newProductViews(products)
	for _, v := range views {
		v.IsFavorite = true
	}
	return types.NewPageResult(page, count, views), nil
}

func (fs *favoritesService) Add(ctx context.Context, slug string) error {
	userID, err := requestUserID(ctx)
	if err != nil {
		return err
	}
	err = fs.txm.WithTx(ctx, func(tx *gorm.DB) error {
		product, err := fs.product(ctx, tx, slug)
		if err != nil {
			return err
		}
		fav, err := fs.favoriteRepo.Get(ctx, tx, userID, product.ID)
		if err != nil {
			return fmt.Errorf("failed to load favorite: %w", err)
		}
		switch {
		case fav == nil:
			return fs.favoriteRepo.Create(ctx, tx, &types.Favorite{UserID: userID, ProductID: product.ID, IsLiked: true})
		case fav.IsLiked:
			return errordata.New(errordata.CodeConflict, "product is already in favorites").WithField("product_slug")
		default:
			return fs.favoriteRepo.SetLiked(ctx, tx, fav.ID, true)
		}
	})
	if err != nil {
		return err
	}
	fs.publish(ctx, userID, "added", slug)
	return nil
}

func (fs *favoritesService) Remove(ctx context.Context, slug string) error {
	userID, err := requestUserID(ctx)
	if err != nil {
		return err
	}
	err = fs.txm.WithTx(ctx, func(tx *gorm.DB) error {
		product, err := fs.product(ctx, tx, slug)
		if err != nil {
			return err
		}
		fav, err := fs.favoriteRepo.Get(ctx, tx, userID, product.ID)
		if err != nil {
			return fmt.Errorf("failed to load favorite: %w", err)
		}
		if fav == nil || !fav.IsLiked {
			return errordata.New(errordata.CodeNotFound, "product is not in favorites").WithField("slug")
		}
		return fs.favoriteRepo.SetLiked(ctx, tx, fav.ID, false)
	})
	if err != nil {
		return err
	}
	fs.publish(ctx, userID, "removed", slug)
	return nil
}

func (fs *favoritesService) Clear(ctx context.Context) error {
	userID, err := requestUserID(ctx)
	if err != nil {
		return err
	}
	n, err := fs.favoriteRepo.UnlikeAll(ctx, nil, userID)
	if err != nil {
		return fmt.Errorf("failed to clear favorites: %w", err)
	}
	fs.log.Info("Favorites cleared", "userID", userID, "rows", n)
	fs.publish(ctx, userID, "cleared", "")
	return nil
}

func (fs *favoritesService) product(ctx context.Context, tx *gorm.DB, slug string) (*types.Product, error) {
	product, err := fs.productRepo.GetBySlug(ctx, tx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, errordata.ErrResourceNotFound.WithField("product_slug")
	}
	return product, nil
}

func (fs *favoritesService) publish(ctx context.Context, userID uuid.UUID, action, slug string) {
	payload := map[string]interface{}{"action": action}
	if slug != "" {
		payload["product_slug"] = slug
	}
	fs.publisher.PublishToUser(ctx, userID, EventFavoritesUpdated, payload)
}
