package services

import (
	"context"
	"encoding/json"
	"io"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/furnihome/furnihome-backend/internal/types"
)

// ==============================================
// CATALOG FIXTURE DATA
// ==============================================

type catalogData struct {
	rooms         []*types.RoomCategory
	productCats   []*types.ProductCategory
	manufacturers []*types.Manufacturer
}

func newCatalogData() *catalogData {
	return &catalogData{
		rooms: []*types.RoomCategory{
			{ID: uuid.New(), Name: "Living Room", Slug: "living-room"},
			{ID: uuid.New(), Name: "Bedroom", Slug: "bedroom"},
		},
		productCats: []*types.ProductCategory{
			{ID: uuid.New(), Name: "Sofas", Slug: "sofas"},
			{ID: uuid.New(), Name: "Beds", Slug: "beds"},
		},
		manufacturers: []*types.Manufacturer{
			{ID: uuid.New(), Name: "Nordhaus", Slug: "nordhaus"},
			{ID: uuid.New(), Name: "Oakline", Slug: "oakline"},
		},
	}
}

func (cd *catalogData) hydrate(p *types.Product) {
	for _, r := range cd.rooms {
		if r.ID == p.RoomCategoryID {
			p.RoomCategory = r
		}
	}
	for _, c := range cd.productCats {
		if c.ID == p.ProductCategoryID {
			p.ProductCategory = c
		}
	}
	for _, m := range cd.manufacturers {
		if m.ID == p.ManufacturerID {
			p.Manufacturer = m
		}
	}
}

// ==============================================
// PRODUCT REPOSITORY (in memory)
// ==============================================

type memProductRepo struct {
	mu        sync.Mutex
	data      *catalogData
	products  map[string]types.Product
	listCalls int
	getCalls  int
}

func newMemProductRepo(data *catalogData) *memProductRepo {
	return &memProductRepo{data: data, products: map[string]types.Product{}}
}

func (m *memProductRepo) snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[string]types.Product, len(m.products))
	for k, v := range m.products {
		saved[k] = v
	}
	return func() {
		m.mu.Lock()
		m.products = saved
		m.mu.Unlock()
	}
}

// add stores a product in the given room category, product category and
// manufacturer indexes of data.
func (m *memProductRepo) add(title, slug string, price float64, room, cat, man int) *types.Product {
	p := types.Product{
		ID:                uuid.New(),
		Title:             title,
		Slug:              slug,
		Price:             price,
		RoomCategoryID:    m.data.rooms[room].ID,
		ProductCategoryID: m.data.productCats[cat].ID,
		ManufacturerID:    m.data.manufacturers[man].ID,
	}
	p.SetImageURLs(nil)
	m.mu.Lock()
	m.products[slug] = p
	m.mu.Unlock()
	return &p
}

func (m *memProductRepo) byID(id uuid.UUID) *types.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.ID == id {
			cp := p
			m.data.hydrate(&cp)
			return &cp
		}
	}
	return nil
}

func (m *memProductRepo) Create(ctx context.Context, tx *gorm.DB, product *types.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	m.products[product.Slug] = *product
	return nil
}

func (m *memProductRepo) sorted(keep func(p *types.Product) bool) []*types.Product {
	var out []*types.Product
	for _, p := range m.products {
		cp := p
		m.data.hydrate(&cp)
		if keep(&cp) {
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

func paginate(all []*types.Product, page types.Page) ([]*types.Product, int64) {
	count := int64(len(all))
	start := page.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + page.Size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], count
}

func inSlugs(slugs []string, slug string) bool {
	if len(slugs) == 0 {
		return true
	}
	for _, s := range slugs {
		if s == slug {
			return true
		}
	}
	return false
}

func (m *memProductRepo) List(ctx context.Context, tx *gorm.DB, filter *types.ProductFilter, page types.Page) ([]*types.Product, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	all := m.sorted(func(p *types.Product) bool {
		if filter == nil {
			return true
		}
		return inSlugs(filter.RoomCategories, p.RoomCategory.Slug) &&
			inSlugs(filter.ProductCategories, p.ProductCategory.Slug) &&
			inSlugs(filter.Manufacturers, p.Manufacturer.Slug) &&
			(filter.MinPrice == nil || p.Price >= *filter.MinPrice) &&
			(filter.MaxPrice == nil || p.Price <= *filter.MaxPrice)
	})
	results, count := paginate(all, page)
	return results, count, nil
}

func (m *memProductRepo) Search(ctx context.Context, tx *gorm.DB, query string, page types.Page) ([]*types.Product, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := strings.ToLower(query)
	all := m.sorted(func(p *types.Product) bool {
		return strings.Contains(strings.ToLower(p.Title+" "+p.Manufacturer.Name), q)
	})
	results, count := paginate(all, page)
	return results, count, nil
}

func (m *memProductRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	p, ok := m.products[slug]
	if !ok {
		return nil, nil
	}
	m.data.hydrate(&p)
	return &p, nil
}

func (m *memProductRepo) SlugExists(ctx context.Context, tx *gorm.DB, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.products[slug]
	return ok, nil
}

func (m *memProductRepo) Update(ctx context.Context, tx *gorm.DB, product *types.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *product
	cp.RoomCategory, cp.ProductCategory, cp.Manufacturer = nil, nil, nil
	m.products[product.Slug] = cp
	return nil
}

func (m *memProductRepo) FullDeleteBySlug(ctx context.Context, tx *gorm.DB, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.products[slug]
	delete(m.products, slug)
	return ok, nil
}

// ==============================================
// CATEGORY + MANUFACTURER REPOSITORIES (in memory)
// ==============================================

type memCategoryRepo struct {
	data  *catalogData
	calls int
}

func (m *memCategoryRepo) UpsertRoomCategories(ctx context.Context, tx *gorm.DB, cats []*types.RoomCategory) error {
	m.data.rooms = append(m.data.rooms, cats...)
	return nil
}

func (m *memCategoryRepo) UpsertProductCategories(ctx context.Context, tx *gorm.DB, cats []*types.ProductCategory) error {
	m.data.productCats = append(m.data.productCats, cats...)
	return nil
}

func (m *memCategoryRepo) ListRoomCategories(ctx context.Context, tx *gorm.DB) ([]*types.RoomCategory, error) {
	m.calls++
	return m.data.rooms, nil
}

func (m *memCategoryRepo) ListProductCategories(ctx context.Context, tx *gorm.DB) ([]*types.ProductCategory, error) {
	m.calls++
	return m.data.productCats, nil
}

func (m *memCategoryRepo) GetRoomCategoriesBySlugs(ctx context.Context, tx *gorm.DB, slugs []string) ([]*types.RoomCategory, error) {
	var out []*types.RoomCategory
	for _, r := range m.data.rooms {
		if contains(slugs, r.Slug) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memCategoryRepo) GetProductCategoriesBySlugs(ctx context.Context, tx *gorm.DB, slugs []string) ([]*types.ProductCategory, error) {
	var out []*types.ProductCategory
	for _, c := range m.data.productCats {
		if contains(slugs, c.Slug) {
			out = append(out, c)
		}
	}
	return out, nil
}

type memManufacturerRepo struct {
	data *catalogData
}

func (m *memManufacturerRepo) Upsert(ctx context.Context, tx *gorm.DB, manufacturers []*types.Manufacturer) error {
	m.data.manufacturers = append(m.data.manufacturers, manufacturers...)
	return nil
}

func (m *memManufacturerRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Manufacturer, error) {
	return m.data.manufacturers, nil
}

func (m *memManufacturerRepo) GetBySlugs(ctx context.Context, tx *gorm.DB, slugs []string) ([]*types.Manufacturer, error) {
	var out []*types.Manufacturer
	for _, man := range m.data.manufacturers {
		if contains(slugs, man.Slug) {
			out = append(out, man)
		}
	}
	return out, nil
}

// ==============================================
// FAVORITE REPOSITORY (in memory)
// ==============================================

type favKey struct {
	user, product uuid.UUID
}

type memFavoriteRepo struct {
	mu       sync.Mutex
	products *memProductRepo
	rows     map[favKey]types.Favorite
}

func newMemFavoriteRepo(products *memProductRepo) *memFavoriteRepo {
	return &memFavoriteRepo{products: products, rows: map[favKey]types.Favorite{}}
}

func (m *memFavoriteRepo) Create(ctx context.Context, tx *gorm.DB, fav *types.Favorite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fav.ID = uuid.New()
	m.rows[favKey{fav.UserID, fav.ProductID}] = *fav
	return nil
}

func (m *memFavoriteRepo) Get(ctx context.Context, tx *gorm.DB, userID, productID uuid.UUID) (*types.Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fav, ok := m.rows[favKey{userID, productID}]
	if !ok {
		return nil, nil
	}
	return &fav, nil
}

func (m *memFavoriteRepo) ListLiked(ctx context.Context, tx *gorm.DB, userID uuid.UUID, page types.Page) ([]*types.Product, int64, error) {
	m.mu.Lock()
	var ids []uuid.UUID
	for k, fav := range m.rows {
		if k.user == userID && fav.IsLiked {
			ids = append(ids, k.product)
		}
	}
	m.mu.Unlock()
	var all []*types.Product
	for _, id := range ids {
		if p := m.products.byID(id); p != nil {
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Title < all[j].Title })
	results, count := paginate(all, page)
	return results, count, nil
}

func (m *memFavoriteRepo) LikedProductIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[uuid.UUID]bool{}
	for _, id := range productIDs {
		if fav, ok := m.rows[favKey{userID, id}]; ok && fav.IsLiked {
			out[id] = true
		}
	}
	return out, nil
}

func (m *memFavoriteRepo) SetLiked(ctx context.Context, tx *gorm.DB, favID uuid.UUID, liked bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, fav := range m.rows {
		if fav.ID == favID {
			fav.IsLiked = liked
			m.rows[k] = fav
		}
	}
	return nil
}

func (m *memFavoriteRepo) UnlikeAll(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, fav := range m.rows {
		if k.user == userID && fav.IsLiked {
			fav.IsLiked = false
			m.rows[k] = fav
			n++
		}
	}
	return n, nil
}

// ==============================================
// CART REPOSITORY (in memory)
// ==============================================

type memCartRepo struct {
	mu       sync.Mutex
	products *memProductRepo
	carts    map[uuid.UUID]uuid.UUID
	items    map[uuid.UUID][]types.CartItem
}

func newMemCartRepo(products *memProductRepo) *memCartRepo {
	return &memCartRepo{
		products: products,
		carts:    map[uuid.UUID]uuid.UUID{},
		items:    map[uuid.UUID][]types.CartItem{},
	}
}

func (m *memCartRepo) GetOrCreate(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.carts[userID]
	if !ok {
		id = uuid.New()
		m.carts[userID] = id
	}
	return &types.Cart{ID: id, UserID: userID}, nil
}

func (m *memCartRepo) GetWithItems(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Cart, error) {
	cart, _ := m.GetOrCreate(ctx, tx, userID)
	m.mu.Lock()
	rows := append([]types.CartItem(nil), m.items[cart.ID]...)
	m.mu.Unlock()
	for i := range rows {
		item := rows[i]
		item.Product = m.products.byID(item.ProductID)
		cart.Items = append(cart.Items, &item)
	}
	return cart, nil
}

func (m *memCartRepo) GetItemByProductID(ctx context.Context, tx *gorm.DB, cartID, productID uuid.UUID) (*types.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items[cartID] {
		if item.ProductID == productID {
			cp := item
			cp.Product = m.products.byID(productID)
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memCartRepo) AddItem(ctx context.Context, tx *gorm.DB, cartID, productID uuid.UUID, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, item := range m.items[cartID] {
		if item.ProductID == productID {
			m.items[cartID][i].Quantity += quantity
			return nil
		}
	}
	m.items[cartID] = append(m.items[cartID], types.CartItem{ID: uuid.New(), CartID: cartID, ProductID: productID, Quantity: quantity})
	return nil
}

func (m *memCartRepo) SetQuantity(ctx context.Context, tx *gorm.DB, cartID, productID uuid.UUID, quantity int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, item := range m.items[cartID] {
		if item.ProductID == productID {
			m.items[cartID][i].Quantity = quantity
			return true, nil
		}
	}
	return false, nil
}

func (m *memCartRepo) DeleteItem(ctx context.Context, tx *gorm.DB, cartID, productID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.items[cartID]
	for i, item := range items {
		if item.ProductID == productID {
			m.items[cartID] = append(items[:i], items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memCartRepo) ClearItems(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, cartID)
	return nil
}

// ==============================================
// CACHE (in memory)
// ==============================================

type mapCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	hits    int
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string][]byte{}}
}

func (c *mapCache) Get(ctx context.Context, key string, dst interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false
	}
	c.hits++
	return true
}

func (c *mapCache) Set(ctx context.Context, key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.entries[key] = raw
	c.mu.Unlock()
}

func (c *mapCache) Invalidate(ctx context.Context, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, pattern := range keys {
		for key := range c.entries {
			if ok, _ := path.Match(pattern, key); ok {
				delete(c.entries, key)
			}
		}
	}
}

// ==============================================
// IMAGES
// ==============================================

type MockImageService struct {
	UploadFunc func(ctx context.Context, prefix string) (string, string, error)
	deleted    []string
}

func (m *MockImageService) Process(r io.Reader) ([]byte, error) {
	return io.ReadAll(r)
}

func (m *MockImageService) Upload(ctx context.Context, prefix string, r io.Reader) (string, string, error) {
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, prefix)
	}
	key := prefix + "/" + uuid.NewString() + ".jpg"
	return key, "https://cdn.test/" + key, nil
}

func (m *MockImageService) Delete(ctx context.Context, key string) {
	if key != "" {
		m.deleted = append(m.deleted, key)
	}
}
