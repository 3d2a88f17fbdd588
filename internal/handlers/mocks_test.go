package handlers

import (
	"context"
	"io"
	"time"

	"github.com/furnihome/furnihome-backend/internal/services"
	"github.com/furnihome/furnihome-backend/internal/types"
)

type MockAuthService struct {
	RegisterFunc     func(ctx context.Context, in services.RegisterInput) (*types.User, error)
	ConfirmEmailFunc func(ctx context.Context, email string, code int) error
	ResendOTPFunc    func(ctx context.Context, email string) error
	LoginFunc        func(ctx context.Context, email, password string) (string, string, error)
	RefreshFunc      func(ctx context.Context, refreshToken string) (string, string, error)
}

func (m *MockAuthService) Register(ctx context.Context, in services.RegisterInput) (*types.User, error) {
	return m.RegisterFunc(ctx, in)
}

func (m *MockAuthService) ResendOTP(ctx context.Context, email string) error {
	if m.ResendOTPFunc != nil {
		return m.ResendOTPFunc(ctx, email)
	}
	return nil
}

func (m *MockAuthService) ConfirmEmail(ctx context.Context, email string, code int) error {
	return m.ConfirmEmailFunc(ctx, email, code)
}

func (m *MockAuthService) RequestPasswordReset(ctx context.Context, email string) error {
	return nil
}

func (m *MockAuthService) ConfirmPasswordReset(ctx context.Context, email string, code int, newPassword, confirm string) error {
	return nil
}

func (m *MockAuthService) ChangePassword(ctx context.Context, current, newPassword, confirm string) error {
	return nil
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (string, string, error) {
	return m.LoginFunc(ctx, email, password)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	return m.RefreshFunc(ctx, refreshToken)
}

func (m *MockAuthService) Logout(ctx context.Context) error {
	return nil
}

func (m *MockAuthService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	return ctx, nil
}

func (m *MockAuthService) GetAccessTTL() time.Duration {
	return time.Hour
}

type MockCatalogService struct {
	ListProductsFunc   func(ctx context.Context, filter *types.ProductFilter, page types.Page) (types.PageResult[*services.ProductView], error)
	SearchProductsFunc func(ctx context.Context, query string, page types.Page) (types.PageResult[*services.ProductView], error)
	GetProductFunc     func(ctx context.Context, slug string) (*services.ProductView, error)
	DeleteProductFunc  func(ctx context.Context, slug string) error
}

func (m *MockCatalogService) ListProducts(ctx context.Context, filter *types.ProductFilter, page types.Page) (types.PageResult[*services.ProductView], error) {
	return m.ListProductsFunc(ctx, filter, page)
}

func (m *MockCatalogService) SearchProducts(ctx context.Context, query string, page types.Page) (types.PageResult[*services.ProductView], error) {
	return m.SearchProductsFunc(ctx, query, page)
}

func (m *MockCatalogService) GetProduct(ctx context.Context, slug string) (*services.ProductView, error) {
	return m.GetProductFunc(ctx, slug)
}

func (m *MockCatalogService) ListRoomCategories(ctx context.Context) ([]*types.RoomCategory, error) {
	return []*types.RoomCategory{{Name: "Bedroom", Slug: "bedroom"}}, nil
}

func (m *MockCatalogService) ListProductCategories(ctx context.Context) ([]*types.ProductCategory, error) {
	return nil, nil
}

func (m *MockCatalogService) ListManufacturers(ctx context.Context) ([]*types.Manufacturer, error) {
	return nil, nil
}

func (m *MockCatalogService) GetManufacturer(ctx context.Context, slug string) (*types.Manufacturer, error) {
	return nil, nil
}

func (m *MockCatalogService) CreateProduct(ctx context.Context, in services.ProductInput) (*services.ProductView, error) {
	return nil, nil
}

func (m *MockCatalogService) UpdateProduct(ctx context.Context, slug string, in services.ProductInput) (*services.ProductView, error) {
	return nil, nil
}

func (m *MockCatalogService) DeleteProduct(ctx context.Context, slug string) error {
	return m.DeleteProductFunc(ctx, slug)
}

func (m *MockCatalogService) AddProductImage(ctx context.Context, slug string, r io.Reader) (*services.ProductView, error) {
	return nil, nil
}

type MockCartService struct {
	AddItemFunc func(ctx context.Context, slug string, quantity int) (*services.CartView, error)
}

func (m *MockCartService) GetCart(ctx context.Context) (*services.CartView, error) {
	return &services.CartView{Items: []*services.CartItemView{}}, nil
}

func (m *MockCartService) AddItem(ctx context.Context, slug string, quantity int) (*services.CartView, error) {
	return m.AddItemFunc(ctx, slug, quantity)
}

func (m *MockCartService) GetItem(ctx context.Context, slug string) (*services.CartItemView, error) {
	return nil, nil
}

func (m *MockCartService) SetQuantity(ctx context.Context, slug string, quantity int) (*services.CartItemView, error) {
	return nil, nil
}

func (m *MockCartService) DeleteItem(ctx context.Context, slug string) error {
	return nil
}

func (m *MockCartService) Clear(ctx context.Context) error {
	return nil
}
