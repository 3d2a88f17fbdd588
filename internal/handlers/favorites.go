package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/furnihome/furnihome-backend/internal/services"
)

type FavoritesHandler struct {
	favoritesService services.FavoritesService
}

func NewFavoritesHandler(favoritesService services.FavoritesService) *FavoritesHandler {
	return &FavoritesHandler{favoritesService: favoritesService}
}

func (fh *FavoritesHandler) List(c *gin.Context) {
	page, ok := pageFromQuery(c)
	if !ok {
		return
	}
	result, err := fh.favoritesService.List(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (fh *FavoritesHandler) Add(c *gin.Context) {
	var req struct {
		ProductSlug string `json:"product_slug"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := fh.favoritesService.Add(c.Request.Context(), req.ProductSlug); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product_slug": req.ProductSlug})
}

func (fh *FavoritesHandler) Remove(c *gin.Context) {
	if err := fh.favoritesService.Remove(c.Request.Context(), c.Param("slug")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (fh *FavoritesHandler) Clear(c *gin.Context) {
	if err := fh.favoritesService.Clear(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
