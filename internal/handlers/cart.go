package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/furnihome/furnihome-backend/internal/services"
)

type CartHandler struct {
	cartService services.CartService
}

func NewCartHandler(cartService services.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

func (ch *CartHandler) GetCart(c *gin.Context) {
	cart, err := ch.cartService.GetCart(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (ch *CartHandler) AddItem(c *gin.Context) {
	var req struct {
		ProductSlug string `json:"product_slug"`
		Quantity    *int   `json:"quantity"`
	}
	if !bindJSON(c, &req) {
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	cart, err := ch.cartService.AddItem(c.Request.Context(), req.ProductSlug, quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cart)
}

func (ch *CartHandler) GetItem(c *gin.Context) {
	item, err := ch.cartService.GetItem(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (ch *CartHandler) UpdateItem(c *gin.Context) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if !bindJSON(c, &req) {
		return
	}
	item, err := ch.cartService.SetQuantity(c.Request.Context(), c.Param("slug"), req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (ch *CartHandler) DeleteItem(c *gin.Context) {
	if err := ch.cartService.DeleteItem(c.Request.Context(), c.Param("slug")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ch *CartHandler) Clear(c *gin.Context) {
	if err := ch.cartService.Clear(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
