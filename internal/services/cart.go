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

type CartItemView struct {
	Product    *ProductView `json:"product"`
	Quantity   int          `json:"quantity"`
	TotalPrice float64      `json:"total_price"`
}

type CartView struct {
	Items     []*CartItemView `json:"cart_items"`
	TotalCost float64         `json:"total_cost"`
}

func newCartItemView(item *types.CartItem) *CartItemView {
	v := &CartItemView{Quantity: item.Quantity, TotalPrice: item.TotalPrice()}
	if item.Product != nil {
		v.Product = NewProductView(item.Product)
	}
	return v
}

func newCartView(cart *types.Cart) *CartView {
	items := make([]*CartItemView, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, newCartItemView(item))
	}
	return &CartView{Items: items, TotalCost: cart.TotalCost()}
}

// CartService manages the single cart of the authenticated user. The cart
// is created on first use.
type CartService interface {
	GetCart(ctx context.Context) (*CartView, error)
	AddItem(ctx context.Context, slug string, quantity int) (*CartView, error)
	GetItem(ctx context.Context, slug string) (*CartItemView, error)
	SetQuantity(ctx context.Context, slug string, quantity int) (*CartItemView, error)
	DeleteItem(ctx context.Context, slug string) error
	Clear(ctx context.Context) error
}

type cartService struct {
	log         *logger.Logger
	txm         repos.TxManager
	cartRepo    repos.CartRepo
	productRepo repos.ProductRepo
	publisher   EventPublisher
}

func NewCartService(
	log *logger.Logger,
	txm repos.TxManager,
	cartRepo repos.CartRepo,
	productRepo repos.ProductRepo,
	publisher EventPublisher,
) CartService {
	if publisher == nil {
		publisher = NopPublisher
	}
	return &cartService{
		log:         log.With("service", "CartService"),
		txm:         txm,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		publisher:   publisher,
	}
}

func (cs *cartService) GetCart(ctx context.Context) (*CartView, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	cart, err := cs.cartRepo.GetWithItems(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return newCartView(cart), nil
}

// AddItem puts quantity of the product in the cart, adding to an existing line.
func (cs *cartService) AddItem(ctx context.Context, slug string, quantity int) (*CartView, error) {
	if quantity <= 0 {
		return nil, errordata.NewValidation("quantity", "quantity must be at least 1")
	}
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	var cart *types.Cart
	err = cs.txm.WithTx(ctx, func(tx *gorm.DB) error {
		product, err := cs.product(ctx, tx, slug)
		if err != nil {
			return err
		}
		c, err := cs.cartRepo.GetOrCreate(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("failed to load cart: %w", err)
		}
		if err := cs.cartRepo.AddItem(ctx, tx, c.ID, product.ID, quantity); err != nil {
			return fmt.Errorf("failed to add cart item: %w", err)
		}
		cart, err = cs.cartRepo.GetWithItems(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	cs.publish(ctx, userID, cart)
	return newCartView(cart), nil
}

func (cs *cartService) GetItem(ctx context.Context, slug string) (*CartItemView, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	item, err := cs.item(ctx, nil, userID, slug)
	if err != nil {
		return nil, err
	}
	return newCartItemView(item), nil
}

func (cs *cartService) SetQuantity(ctx context.Context, slug string, quantity int) (*CartItemView, error) {
	if quantity <= 0 {
		return nil, errordata.NewValidation("quantity", "quantity must be at least 1")
	}
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	var item *types.CartItem
	err = cs.txm.WithTx(ctx, func(tx *gorm.DB) error {
		current, err := cs.item(ctx, tx, userID, slug)
		if err != nil {
			return err
		}
		if _, err := cs.cartRepo.SetQuantity(ctx, tx, current.CartID, current.ProductID, quantity); err != nil {
			return fmt.Errorf("failed to update cart item: %w", err)
		}
		current.Quantity = quantity
		item = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	cs.publish(ctx, userID, nil)
	return newCartItemView(item), nil
}

func (cs *cartService) DeleteItem(ctx context.Context, slug string) error {
	userID, err := requestUserID(ctx)
	if err != nil {
		return err
	}
	err = cs.txm.WithTx(ctx, func(tx *gorm.DB) error {
		product, err := cs.product(ctx, tx, slug)
		if err != nil {
			return err
		}
		cart, err := cs.cartRepo.GetOrCreate(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("failed to load cart: %w", err)
		}
		deleted, err := cs.cartRepo.DeleteItem(ctx, tx, cart.ID, product.ID)
		if err != nil {
			return fmt.Errorf("failed to delete cart item: %w", err)
		}
		if !deleted {
			return errordata.New(errordata.CodeNotFound, "product is not in the cart").WithField("slug")
		}
		return nil
	})
	if err != nil {
		return err
	}
	cs.publish(ctx, userID, nil)
	return nil
}

func (cs *cartService) Clear(ctx context.Context) error {
	userID, err := requestUserID(ctx)
	if err != nil {
		return err
	}
	cart, err := cs.cartRepo.GetOrCreate(ctx, nil, userID)
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}
	if err := cs.cartRepo.ClearItems(ctx, nil, cart.ID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	cs.log.Info("Cart cleared", "userID", userID)
	cs.publish(ctx, userID, &types.Cart{})
	return nil
}

func (cs *cartService) product(ctx context.Context, tx *gorm.DB, slug string) (*types.Product, error) {
	product, err := cs.productRepo.GetBySlug(ctx, tx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, errordata.ErrResourceNotFound.WithField("product_slug")
	}
	return product, nil
}

func (cs *cartService) item(ctx context.Context, tx *gorm.DB, userID uuid.UUID, slug string) (*types.CartItem, error) {
	product, err := cs.product(ctx, tx, slug)
	if err != nil {
		return nil, err
	}
	cart, err := cs.cartRepo.GetOrCreate(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	item, err := cs.cartRepo.GetItemByProductID(ctx, tx, cart.ID, product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart item: %w", err)
	}
	if item == nil {
		return nil, errordata.New(errordata.CodeNotFound, "product is not in the cart").WithField("slug")
	}
	return item, nil
}

// publish announces a cart change. When the new cart is known its total
// travels with the event.
func (cs *cartService) publish(ctx context.Context, userID uuid.UUID, cart *types.Cart) {
	payload := map[string]interface{}{}
	if cart != nil {
		payload["items"] = len(cart.Items)
		payload["total_cost"] = cart.TotalCost()
	}
	cs.publisher.PublishToUser(ctx, userID, EventCartUpdated, payload)
}
