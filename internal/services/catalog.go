package services

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/furnihome/furnihome-backend/internal/errordata"
	"github.com/furnihome/furnihome-backend/internal/logger"
	"github.com/furnihome/furnihome-backend/internal/normalization"
	"github.com/furnihome/furnihome-backend/internal/repos"
	"github.com/furnihome/furnihome-backend/internal/requestdata"
	"github.com/furnihome/furnihome-backend/internal/types"
)

const productImagePrefix = "product_images"

// ProductView is the product payload returned to clients.
type ProductView struct {
	*types.Product
	ID              uuid.UUID              `json:"id"`
	Images          []string               `json:"images"`
	RoomCategory    *types.RoomCategory    `json:"room_category"`
	ProductCategory *types.ProductCategory `json:"product_category"`
	Manufacturer    *types.Manufacturer    `json:"manufacturer"`
	IsFavorite      bool                   `json:"is_favorite"`
}

func NewProductView(p *types.Product) *ProductView {
	return &ProductView{
		Product:         p,
		ID:              p.ID,
		Images:          p.ImageURLs(),
		RoomCategory:    p.RoomCategory,
		ProductCategory: p.ProductCategory,
		Manufacturer:    p.Manufacturer,
	}
}

func newProductViews(products []*types.Product) []*ProductView {
	views := make([]*ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, NewProductView(p))
	}
	return views
}

// ProductInput is a staff create or update request. Category and
// manufacturer fields are slugs. Nil fields are left unchanged on update.
type ProductInput struct {
	Title           *string                `json:"title"`
	Slug            *string                `json:"slug"`
	Description     *string                `json:"description"`
	Color           *string                `json:"color"`
	Material        *string                `json:"material"`
	Price           *float64               `json:"price"`
	Length          *float64               `json:"length"`
	Width           *float64               `json:"width"`
	Height          *float64               `json:"height"`
	MaximumLoad     *float64               `json:"maximum_load"`
	Rating          *float64               `json:"rating"`
	RoomCategory    *string                `json:"room_category"`
	ProductCategory *string                `json:"product_category"`
	Manufacturer    *string                `json:"manufacturer"`
	IsAR            *bool                  `json:"is_ar"`
	ARModel         *string                `json:"ar_model"`
	ARURL           *string                `json:"ar_url"`
	Attributes      map[string]interface{} `json:"attributes"`
}

type CatalogService interface {
	ListProducts(ctx context.Context, filter *types.ProductFilter, page types.Page) (types.PageResult[*ProductView], error)
	SearchProducts(ctx context.Context, query string, page types.Page) (types.PageResult[*ProductView], error)
	GetProduct(ctx context.Context, slug string) (*ProductView, error)

	ListRoomCategories(ctx context.Context) ([]*types.RoomCategory, error)
	ListProductCategories(ctx context.Context) ([]*types.ProductCategory, error)
	ListManufacturers(ctx context.Context) ([]*types.Manufacturer, error)
	GetManufacturer(ctx context.Context, slug string) (*types.Manufacturer, error)

	CreateProduct(ctx context.Context, in ProductInput) (*ProductView, error)
	UpdateProduct(ctx context.Context, slug string, in ProductInput) (*ProductView, error)
	DeleteProduct(ctx context.Context, slug string) error
	AddProductImage(ctx context.Context, slug string, r io.Reader) (*ProductView, error)
}

type catalogService struct {
	log              *logger.Logger
	txm              repos.TxManager
	productRepo      repos.ProductRepo
	categoryRepo     repos.CategoryRepo
	manufacturerRepo repos.ManufacturerRepo
	favoriteRepo     repos.FavoriteRepo
	imageService     ImageService
	cache            CatalogCache
}

func NewCatalogService(
	log *logger.Logger,
	txm repos.TxManager,
	productRepo repos.ProductRepo,
	categoryRepo repos.CategoryRepo,
	manufacturerRepo repos.ManufacturerRepo,
	favoriteRepo repos.FavoriteRepo,
	imageService ImageService,
	cache CatalogCache,
) CatalogService {
	if cache == nil {
		cache = NoCache
	}
	return &catalogService{
		log:              log.With("service", "CatalogService"),
		txm:              txm,
		productRepo:      productRepo,
		categoryRepo:     categoryRepo,
		manufacturerRepo: manufacturerRepo,
		favoriteRepo:     favoriteRepo,
		imageService:     imageService,
		cache:            cache,
	}
}

//----------------------------------------------------------------------------------------
// Reads
//----------------------------------------------------------------------------------------

func (cs *catalogService) ListProducts(ctx context.Context, filter *types.ProductFilter, page types.Page) (types.PageResult[*ProductView], error) {
	if filter != nil && filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return types.PageResult[*ProductView]{}, errordata.NewValidation("min_price", "min_price must not exceed max_price")
	}
	key := productListCacheKey(filter, page)
	var result types.PageResult[*ProductView]
	if !cs.cache.Get(ctx, key, &result) {
		products, count, err := cs.productRepo.List(ctx, nil, filter, page)
		if err != nil {
			return result, fmt.Errorf("failed to list products: %w", err)
		}
		result = types.NewPageResult(page, count, newProductViews(products))
		cs.cache.Set(ctx, key, result)
	}
	if err := cs.markFavorites(ctx, result.Results); err != nil {
		return result, err
	}
	return result, nil
}

func (cs *catalogService) SearchProducts(ctx context.Context, query string, page types.Page) (types.PageResult[*ProductView], error) {
	query = normalization.ParseInputString(query)
	if query == "" {
		return types.PageResult[*ProductView]{}, errordata.NewValidation("q", "search query is required")
	}
	products, count, err := cs.productRepo.Search(ctx, nil, query, page)
	if err != nil {
		return types.PageResult[*ProductView]{}, fmt.Errorf("failed to search products: %w", err)
	}
	result := types.NewPageResult(page, count, newProductViews(products))
	if err := cs.markFavorites(ctx, result.Results); err != nil {
		return result, err
	}
	return result, nil
}

func (cs *catalogService) GetProduct(ctx context.Context, slug string) (*ProductView, error) {
	view := &ProductView{}
	if !cs.cache.Get(ctx, productCacheKey(slug), view) {
		product, err := cs.productRepo.GetBySlug(ctx, nil, slug)
		if err != nil {
			return nil, fmt.Errorf("failed to load product: %w", err)
		}
		if product == nil {
			return nil, errordata.ErrResourceNotFound.WithField("slug")
		}
		view = NewProductView(product)
		cs.cache.Set(ctx, productCacheKey(slug), view)
	}
	if err := cs.markFavorites(ctx, []*ProductView{view}); err != nil {
		return nil, err
	}
	return view, nil
}

// markFavorites sets IsFavorite for the authenticated caller, if any.
func (cs *catalogService) markFavorites(ctx context.Context, views []*ProductView) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil || len(views) == 0 || cs.favoriteRepo == nil {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.ID)
	}
	liked, err := cs.favoriteRepo.LikedProductIDs(ctx, nil, rd.UserID, ids)
	if err != nil {
		return fmt.Errorf("failed to load favorites: %w", err)
	}
	for _, v := range views {
		v.IsFavorite = liked[v.ID]
	}
	return nil
}

func (cs *catalogService) ListRoomCategories(ctx context.Context) ([]*types.RoomCategory, error) {
	var cats []*types.RoomCategory
	if cs.cache.Get(ctx, cacheKeyRooms, &cats) {
		return cats, nil
	}
	cats, err := cs.categoryRepo.ListRoomCategories(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list room categories: %w", err)
	}
	cs.cache.Set(ctx, cacheKeyRooms, cats)
	return cats, nil
}

func (cs *catalogService) ListProductCategories(ctx context.Context) ([]*types.ProductCategory, error) {
	var cats []*types.ProductCategory
	if cs.cache.Get(ctx, cacheKeyProductCats, &cats) {
		return cats, nil
	}
	cats, err := cs.categoryRepo.ListProductCategories(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list product categories: %w", err)
	}
	cs.cache.Set(ctx, cacheKeyProductCats, cats)
	return cats, nil
}

func (cs *catalogService) ListManufacturers(ctx context.Context) ([]*types.Manufacturer, error) {
	var list []*types.Manufacturer
	if cs.cache.Get(ctx, cacheKeyManufacturers, &list) {
		return list, nil
	}
	list, err := cs.manufacturerRepo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list manufacturers: %w", err)
	}
	cs.cache.Set(ctx, cacheKeyManufacturers, list)
	return list, nil
}

func (cs *catalogService) GetManufacturer(ctx context.Context, slug string) (*types.Manufacturer, error) {
	m := &types.Manufacturer{}
	if cs.cache.Get(ctx, manufacturerCacheKey(slug), m) {
		return m, nil
	}
	found, err := cs.manufacturerRepo.GetBySlugs(ctx, nil, []string{slug})
	if err != nil {
		return nil, fmt.Errorf("failed to load manufacturer: %w", err)
	}
	if len(found) == 0 {
		return nil, errordata.ErrResourceNotFound.WithField("slug")
	}
	cs.cache.Set(ctx, manufacturerCacheKey(slug), found[0])
	return found[0], nil
}

//----------------------------------------------------------------------------------------
// Staff writes
//----------------------------------------------------------------------------------------

func (cs *catalogService) CreateProduct(ctx context.Context, in ProductInput) (*ProductView, error) {
	if in.Title == nil || normalization.ParseInputString(*in.Title) == "" {
		return nil, errordata.NewValidation("title", "title is required")
	}
	if in.Price == nil {
		return nil, errordata.NewValidation("price", "price is required")
	}
	for _, req := range []struct {
		field string
		value *string
	}{
		{"room_category", in.RoomCategory},
		{"product_category", in.ProductCategory},
		{"manufacturer", in.Manufacturer},
	} {
		if req.value == nil || *req.value == "" {
			return nil, errordata.NewValidation(req.field, req.field+" is required")
		}
	}

	product := &types.Product{}
	var created *types.Product
	err := cs.txm.WithTx(ctx, func(tx *gorm.DB) error {
		if err := cs.apply(ctx, tx, product, in); err != nil {
			return err
		}
		slug, err := cs.resolveSlug(ctx, tx, in.Slug, product.Title)
		if err != nil {
			return err
		}
		product.Slug = slug
		if product.Images == nil {
			product.SetImageURLs(nil)
		}
		if err := cs.productRepo.Create(ctx, tx, product); err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}
		created, err = cs.productRepo.GetBySlug(ctx, tx, slug)
		return err
	})
	if err != nil {
		return nil, err
	}
	cs.invalidate(ctx, created.Slug)
	cs.log.Info("Product created", "slug", created.Slug)
	return NewProductView(created), nil
}

func (cs *catalogService) UpdateProduct(ctx context.Context, slug string, in ProductInput) (*ProductView, error) {
	if in.Title != nil && normalization.ParseInputString(*in.Title) == "" {
		return nil, errordata.NewValidation("title", "title must not be empty")
	}
	var updated *types.Product
	err := cs.txm.WithTx(ctx, func(tx *gorm.DB) error {
		product, err := cs.productRepo.GetBySlug(ctx, tx, slug)
		if err != nil {
			return fmt.Errorf("failed to load product: %w", err)
		}
		if product == nil {
			return errordata.ErrResourceNotFound.WithField("slug")
		}
		if err := cs.apply(ctx, tx, product, in); err != nil {
			return err
		}
		if err := cs.productRepo.Update(ctx, tx, product); err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		updated, err = cs.productRepo.GetBySlug(ctx, tx, slug)
		return err
	})
	if err != nil {
		return nil, err
	}
	cs.invalidate(ctx, slug)
	return NewProductView(updated), nil
}

func (cs *catalogService) DeleteProduct(ctx context.Context, slug string) error {
	product, err := cs.productRepo.GetBySlug(ctx, nil, slug)
	if err != nil {
		return fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return errordata.ErrResourceNotFound.WithField("slug")
	}
	deleted, err := cs.productRepo.FullDeleteBySlug(ctx, nil, slug)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if !deleted {
		return errordata.ErrResourceNotFound.WithField("slug")
	}
	cs.invalidate(ctx, slug)
	cs.log.Info("Product deleted", "slug", slug)
	return nil
}

func (cs *catalogService) AddProductImage(ctx context.Context, slug string, r io.Reader) (*ProductView, error) {
	if cs.imageService == nil {
		return nil, fmt.Errorf("image uploads are not configured")
	}
	product, err := cs.productRepo.GetBySlug(ctx, nil, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, errordata.ErrResourceNotFound.WithField("slug")
	}
	key, url, err := cs.imageService.Upload(ctx, productImagePrefix+"/"+slug, r)
	if err != nil {
		return nil, err
	}
	product.AddImageURL(url)
	if err := cs.productRepo.Update(ctx, nil, product); err != nil {
		cs.imageService.Delete(ctx, key)
		return nil, fmt.Errorf("failed to attach image: %w", err)
	}
	cs.invalidate(ctx, slug)
	return NewProductView(product), nil
}

//----------------------------------------------------------------------------------------
// Helpers
//----------------------------------------------------------------------------------------

// apply copies the set fields of in onto product, resolving slugs to ids.
func (cs *catalogService) apply(ctx context.Context, tx *gorm.DB, product *types.Product, in ProductInput) error {
	if in.Title != nil {
		product.Title = normalization.ParseInputString(*in.Title)
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Color != nil {
		product.Color = normalization.ParseInputString(*in.Color)
	}
	if in.Material != nil {
		product.Material = normalization.ParseInputString(*in.Material)
	}
	for _, m := range []struct {
		field string
		in    *float64
		out   *float64
	}{
		{"price", in.Price, &product.Price},
		{"length", in.Length, &product.Length},
		{"width", in.Width, &product.Width},
		{"height", in.Height, &product.Height},
		{"maximum_load", in.MaximumLoad, &product.MaximumLoad},
	} {
		if m.in == nil {
			continue
		}
		if *m.in < 0 {
			return errordata.NewValidation(m.field, m.field+" must not be negative")
		}
		*m.out = *m.in
	}
	if in.Rating != nil {
		if *in.Rating < 0 || *in.Rating > 5 {
			return errordata.NewValidation("rating", "rating must be between 0 and 5")
		}
		product.Rating = *in.Rating
	}
	if in.IsAR != nil {
		product.IsAR = *in.IsAR
	}
	if in.ARModel != nil {
		product.ARModel = *in.ARModel
	}
	if in.ARURL != nil {
		product.ARURL = *in.ARURL
	}
	if in.Attributes != nil {
		product.Attributes = in.Attributes
	}

	if in.RoomCategory != nil {
		found, err := cs.categoryRepo.GetRoomCategoriesBySlugs(ctx, tx, []string{*in.RoomCategory})
		if err != nil {
			return fmt.Errorf("failed to resolve room category: %w", err)
		}
		if len(found) == 0 {
			return errordata.NewValidation("room_category", "unknown room category")
		}
		product.RoomCategoryID = found[0].ID
	}
	if in.ProductCategory != nil {
		found, err := cs.categoryRepo.GetProductCategoriesBySlugs(ctx, tx, []string{*in.ProductCategory})
		if err != nil {
			return fmt.Errorf("failed to resolve product category: %w", err)
		}
		if len(found) == 0 {
			return errordata.NewValidation("product_category", "unknown product category")
		}
		product.ProductCategoryID = found[0].ID
	}
	if in.Manufacturer != nil {
		found, err := cs.manufacturerRepo.GetBySlugs(ctx, tx, []string{*in.Manufacturer})
		if err != nil {
			return fmt.Errorf("failed to resolve manufacturer: %w", err)
		}
		if len(found) == 0 {
			return errordata.NewValidation("manufacturer", "unknown manufacturer")
		}
		product.ManufacturerID = found[0].ID
	}
	return nil
}

// resolveSlug honors an explicit slug or derives a free one from the title
// by appending -2, -3 and so on.
func (cs *catalogService) resolveSlug(ctx context.Context, tx *gorm.DB, explicit *string, title string) (string, error) {
	if explicit != nil && *explicit != "" {
		slug := normalization.Slugify(*explicit)
		if slug == "" {
			return "", errordata.NewValidation("slug", "slug is invalid")
		}
		exists, err := cs.productRepo.SlugExists(ctx, tx, slug)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if exists {
			return "", errordata.ErrConflict.WithField("slug")
		}
		return slug, nil
	}
	base := normalization.Slugify(title)
	if base == "" {
		base = "product"
	}
	slug := base
	for n := 2; ; n++ {
		exists, err := cs.productRepo.SlugExists(ctx, tx, slug)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if !exists {
			return slug, nil
		}
		slug = base + "-" + strconv.Itoa(n)
	}
}

func (cs *catalogService) invalidate(ctx context.Context, slug string) {
	cs.cache.Invalidate(ctx, productCacheKey(slug), cacheKeyProductLists)
}
