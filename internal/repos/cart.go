package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/furnihome/furnihome-backend/internal/logger"
	"github.com/furnihome/furnihome-backend/internal/types"
)

type CartRepo interface {
	// CART
	GetOrCreate(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Cart, error)
	GetWithItems(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Cart, error)

	// ITEMS
	GetItemByProductID(ctx context.Context, tx *gorm.DB, cartID, productID uuid.UUID) (*types.CartItem, error)
	AddItem(ctx context.Context, tx *gorm.DB, cartID, productID uuid.UUID, quantity int) error
	SetQuantity(ctx context.Context, tx *gorm.DB, cartID, productID uuid.UUID, quantity int) (bool, error)
	DeleteItem(ctx context.Context, tx *gorm.DB, cartID, productID uuid.UUID) (bool, error)
	ClearItems(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error
}

type cartRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCartRepo(db *gorm.DB, baseLog *logger.Logger) CartRepo {
	repoLog := baseLog.With("repo", "CartRepo")
	return &cartRepo{db: db, log: repoLog}
}

// ----------------------------------------------------------------
// CART
// ----------------------------------------------------------------

// GetOrCreate returns the user's cart, creating an empty one on first use.
func (cr *cartRepo) GetOrCreate(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Cart, error) {
	db := conn(ctx, tx, cr.db)
	cart := types.Cart{UserID: userID}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Omit(clause.Associations).Create(&cart).Error; err != nil {
		cr.log.Error("Failed to create cart", "error", err, "userID", userID)
		return nil, err
	}
	var out types.Cart
	if err := db.Where("user_id = ?", userID).First(&out).Error; err != nil {
		cr.log.Error("Failed to fetch cart", "error", err, "userID", userID)
		return nil, err
	}
	return &out, nil
}

// GetWithItems loads the cart and each item's product, oldest item first.
func (cr *cartRepo) GetWithItems(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Cart, error) {
	cart, err := cr.GetOrCreate(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	var items []*types.CartItem
	if err := conn(ctx, tx, cr.db).
		Preload("Product.Manufacturer").
		Where("cart_id = ?", cart.ID).
		Order("created_at").
		Find(&items).Error; err != nil {
		cr.log.Error("Failed to load cart items", "error", err, "cartID", cart.ID)
		return nil, err
	}
	cart.Items = items
	return cart, nil
}

// ----------------------------------------------------------------
// ITEMS
// ----------------------------------------------------------------

// GetItemByProductID returns nil, nil when the product is not in the cart.
func (cr *cartRepo) GetItemByProductID(ctx context.Context, tx *gorm.DB, cartID, productID uuid.UUID) (*types.CartItem, error) {
	var item types.CartItem
	err := conn(ctx, tx, cr.db).
		Preload("Product.Manufacturer").
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		cr.log.Error("Failed to fetch cart item", "error", err)
		return nil, err
	}
	return &item, nil
}

// AddItem inserts the product or increments the existing line by quantity.
func (cr *cartRepo) AddItem(ctx context.Context, tx *gorm.DB, cartID, productID uuid.UUID, quantity int) error {
	item := types.CartItem{CartID: cartID, ProductID: productID, Quantity: quantity}
	err := conn(ctx, tx, cr.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity":   gorm.Expr("cart_item.quantity + EXCLUDED.quantity"),
				"updated_at": gorm.Expr("now()"),
			}),
		}).
		Omit(clause.Associations).
		Create(&item).Error
	if err != nil {
		cr.log.Error("Failed to add cart item", "error", err)
		return err
	}
	cr.log.Debug("Added cart item", "cartID", cartID, "productID", productID, "quantity", quantity)
	return nil
}

func (cr *cartRepo) SetQuantity(ctx context.Context, tx *gorm.DB, cartID, productID uuid.UUID, quantity int) (bool, error) {
	res := conn(ctx, tx, cr.db).
		Model(&types.CartItem{}).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Update("quantity", quantity)
	if res.Error != nil {
		cr.log.Error("Failed to set cart item quantity", "error", res.Error)
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (cr *cartRepo) DeleteItem(ctx context.Context, tx *gorm.DB, cartID, productID uuid.UUID) (bool, error) {
	res := conn(ctx, tx, cr.db).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&types.CartItem{})
	if res.Error != nil {
		cr.log.Error("Failed to delete cart item", "error", res.Error)
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (cr *cartRepo) ClearItems(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error {
	if err := conn(ctx, tx, cr.db).Where("cart_id = ?", cartID).Delete(&types.CartItem{}).Error; err != nil {
		cr.log.Error("Failed to clear cart", "error", err, "cartID", cartID)
		return err
	}
	cr.log.Info("Cleared cart", "cartID", cartID)
	return nil
}
