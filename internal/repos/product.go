package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/furnihome/furnihome-backend/internal/logger"
	"github.com/furnihome/furnihome-backend/internal/types"
)

// searchVector is the document every search query is matched against.
const searchVector = "to_tsvector('simple', " +
	"coalesce(product.title, '') || ' ' || coalesce(product.description, '') || ' ' || " +
	"coalesce(product.material, '') || ' ' || coalesce(product.color, '') || ' ' || " +
	"coalesce(manufacturer.name, '') || ' ' || coalesce(room_category.name, '') || ' ' || " +
	"coalesce(product_category.name, ''))"

type ProductRepo interface {
	// CREATE
	Create(ctx context.Context, tx *gorm.DB, product *types.Product) error

	// READ
	List(ctx context.Context, tx *gorm.DB, filter *types.ProductFilter, page types.Page) ([]*types.Product, int64, error)
	Search(ctx context.Context, tx *gorm.DB, query string, page types.Page) ([]*types.Product, int64, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Product, error)
	SlugExists(ctx context.Context, tx *gorm.DB, slug string) (bool, error)

	// UPDATE
	Update(ctx context.Context, tx *gorm.DB, product *types.Product) error

	// FULL (HARD) DELETE
	FullDeleteBySlug(ctx context.Context, tx *gorm.DB, slug string) (bool, error)
}

type productRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	repoLog := baseLog.With("repo", "ProductRepo")
	return &productRepo{db: db, log: repoLog}
}

// ----------------------------------------------------------------
// CREATE
// ----------------------------------------------------------------

func (pr *productRepo) Create(ctx context.Context, tx *gorm.DB, product *types.Product) error {
	pr.log.Info("Starting Create Product now...", "slug", product.Slug)
	if err := conn(ctx, tx, pr.db).Omit(clause.Associations).Create(product).Error; err != nil {
		pr.log.Error("Failed to create product", "error", err)
		return err
	}
	pr.log.Info("Successfully created product", "slug", product.Slug)
	return nil
}

// ----------------------------------------------------------------
// READ
// ----------------------------------------------------------------

func (pr *productRepo) List(ctx context.Context, tx *gorm.DB, filter *types.ProductFilter, page types.Page) ([]*types.Product, int64, error) {
	db := conn(ctx, tx, pr.db)
	q := db.Model(&types.Product{})
	if filter != nil {
		if len(filter.RoomCategories) > 0 {
			q = q.Where("product.room_category_id IN (?)",
				db.Model(&types.RoomCategory{}).Select("id").Where("slug IN ?", filter.RoomCategories))
		}
		if len(filter.ProductCategories) > 0 {
			q = q.Where("product.product_category_id IN (?)",
				db.Model(&types.ProductCategory{}).Select("id").Where("slug IN ?", filter.ProductCategories))
		}
		if len(filter.Manufacturers) > 0 {
			q = q.Where("product.manufacturer_id IN (?)",
				db.Model(&types.Manufacturer{}).Select("id").Where("slug IN ?", filter.Manufacturers))
		}
		if filter.MinPrice != nil {
			q = q.Where("product.price >= ?", *filter.MinPrice)
		}
		if filter.MaxPrice != nil {
			q = q.Where("product.price <= ?", *filter.MaxPrice)
		}
	}
	q = q.Session(&gorm.Session{})

	var count int64
	if err := q.Count(&count).Error; err != nil {
		pr.log.Error("Failed to count products", "error", err)
		return nil, 0, err
	}

	var results []*types.Product
	if err := q.
		Preload("RoomCategory").
		Preload("ProductCategory").
		Preload("Manufacturer").
		Order("product.title").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&results).Error; err != nil {
		pr.log.Error("Failed to list products", "error", err)
		return nil, 0, err
	}
	pr.log.Debug("Listed products", "count", count, "page", page.Number)
	return results, count, nil
}

// Search runs a Postgres full-text query and orders hits by rank.
func (pr *productRepo) Search(ctx context.Context, tx *gorm.DB, query string, page types.Page) ([]*types.Product, int64, error) {
	q := conn(ctx, tx, pr.db).
		Model(&types.Product{}).
		Joins("JOIN manufacturer ON manufacturer.id = product.manufacturer_id").
		Joins("JOIN room_category ON room_category.id = product.room_category_id").
		Joins("JOIN product_category ON product_category.id = product.product_category_id").
		Where(searchVector+" @@ plainto_tsquery('simple', ?)", query).
		Session(&gorm.Session{})

	var count int64
	if err := q.Count(&count).Error; err != nil {
		pr.log.Error("Failed to count search results", "error", err)
		return nil, 0, err
	}

	var results []*types.Product
	if err := q.
		Select("product.*").
		Preload("RoomCategory").
		Preload("ProductCategory").
		Preload("Manufacturer").
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "ts_rank(" + searchVector + ", plainto_tsquery('simple', ?)) DESC, product.title",
			Vars:               []interface{}{query},
			WithoutParentheses: true,
		}}).
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&results).Error; err != nil {
		pr.log.Error("Failed to search products", "error", err)
		return nil, 0, err
	}
	pr.log.Debug("Searched products", "query", query, "count", count)
	return results, count, nil
}

// GetBySlug returns nil, nil when no product has the slug.
func (pr *productRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Product, error) {
	var product types.Product
	err := conn(ctx, tx, pr.db).
		Preload("RoomCategory").
		Preload("ProductCategory").
		Preload("Manufacturer").
		Where("slug = ?", slug).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		pr.log.Error("Failed to fetch product by slug", "error", err, "slug", slug)
		return nil, err
	}
	return &product, nil
}

func (pr *productRepo) SlugExists(ctx context.Context, tx *gorm.DB, slug string) (bool, error) {
	var count int64
	if err := conn(ctx, tx, pr.db).Model(&types.Product{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		pr.log.Error("Failed to check product slug", "error", err)
		return false, err
	}
	return count > 0, nil
}

// ----------------------------------------------------------------
// UPDATE
// ----------------------------------------------------------------

func (pr *productRepo) Update(ctx context.Context, tx *gorm.DB, product *types.Product) error {
	err := conn(ctx, tx, pr.db).
		Model(&types.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]interface{}{
			"title":               product.Title,
			"description":         product.Description,
			"color":               product.Color,
			"material":            product.Material,
			"price":               product.Price,
			"length":              product.Length,
			"width":               product.Width,
			"height":              product.Height,
			"maximum_load":        product.MaximumLoad,
			"rating":              product.Rating,
			"room_category_id":    product.RoomCategoryID,
			"product_category_id": product.ProductCategoryID,
			"manufacturer_id":     product.ManufacturerID,
			"is_ar":               product.IsAR,
			"ar_model":            product.ARModel,
			"ar_url":              product.ARURL,
			"images":              product.Images,
			"attributes":          product.Attributes,
		}).Error
	if err != nil {
		pr.log.Error("Failed to update product", "error", err, "slug", product.Slug)
		return err
	}
	pr.log.Info("Updated product", "slug", product.Slug)
	return nil
}

// ----------------------------------------------------------------
// FULL (HARD) DELETE
// ----------------------------------------------------------------

// FullDeleteBySlug reports whether a row was removed.
func (pr *productRepo) FullDeleteBySlug(ctx context.Context, tx *gorm.DB, slug string) (bool, error) {
	res := conn(ctx, tx, pr.db).Where("slug = ?", slug).Delete(&types.Product{})
	if res.Error != nil {
		pr.log.Error("Failed to delete product", "error", res.Error, "slug", slug)
		return false, res.Error
	}
	pr.log.Info("Deleted product", "slug", slug, "rows", res.RowsAffected)
	return res.RowsAffected > 0, nil
}
