package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/furnihome/furnihome-backend/internal/errordata"
	"github.com/furnihome/furnihome-backend/internal/normalization"
	"github.com/furnihome/furnihome-backend/internal/services"
	"github.com/furnihome/furnihome-backend/internal/types"
)

type CatalogHandler struct {
	catalogService services.CatalogService
}

func NewCatalogHandler(catalogService services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

//----------------------------------------------------------------------------------------
// Products
//----------------------------------------------------------------------------------------

func (ch *CatalogHandler) ListProducts(c *gin.Context) {
	page, ok := pageFromQuery(c)
	if !ok {
		return
	}
	result, err := ch.catalogService.ListProducts(c.Request.Context(), nil, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// FilterProducts accepts comma separated slugs in room_category,
// product_category and manufacturer plus min_price and max_price.
func (ch *CatalogHandler) FilterProducts(c *gin.Context) {
	page, ok := pageFromQuery(c)
	if !ok {
		return
	}
	filter := &types.ProductFilter{
		RoomCategories:    normalization.SplitCSV(c.Query("room_category")),
		ProductCategories: normalization.SplitCSV(c.Query("product_category")),
		Manufacturers:     normalization.SplitCSV(c.Query("manufacturer")),
	}
	if filter.MinPrice, ok = floatQuery(c, "min_price"); !ok {
		return
	}
	if filter.MaxPrice, ok = floatQuery(c, "max_price"); !ok {
		return
	}
	result, err := ch.catalogService.ListProducts(c.Request.Context(), filter, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (ch *CatalogHandler) SearchProducts(c *gin.Context) {
	page, ok := pageFromQuery(c)
	if !ok {
		return
	}
	result, err := ch.catalogService.SearchProducts(c.Request.Context(), c.Query("q"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (ch *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := ch.catalogService.GetProduct(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (ch *CatalogHandler) CreateProduct(c *gin.Context) {
	var req services.ProductInput
	if !bindJSON(c, &req) {
		return
	}
	product, err := ch.catalogService.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (ch *CatalogHandler) UpdateProduct(c *gin.Context) {
	var req services.ProductInput
	if !bindJSON(c, &req) {
		return
	}
	product, err := ch.catalogService.UpdateProduct(c.Request.Context(), c.Param("slug"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (ch *CatalogHandler) DeleteProduct(c *gin.Context) {
	if err := ch.catalogService.DeleteProduct(c.Request.Context(), c.Param("slug")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ch *CatalogHandler) AddProductImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImageUpload)
	file, _, err := c.Request.FormFile("image")
	if err != nil {
		respondError(c, errordata.NewValidation("image", "an image file is required"))
		return
	}
	defer file.Close()

	product, err := ch.catalogService.AddProductImage(c.Request.Context(), c.Param("slug"), file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

//----------------------------------------------------------------------------------------
// Categories & manufacturers
//----------------------------------------------------------------------------------------

func (ch *CatalogHandler) ListRoomCategories(c *gin.Context) {
	cats, err := ch.catalogService.ListRoomCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cats)
}

func (ch *CatalogHandler) ListProductCategories(c *gin.Context) {
	cats, err := ch.catalogService.ListProductCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cats)
}

func (ch *CatalogHandler) ListManufacturers(c *gin.Context) {
	list, err := ch.catalogService.ListManufacturers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (ch *CatalogHandler) GetManufacturer(c *gin.Context) {
	m, err := ch.catalogService.GetManufacturer(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}
