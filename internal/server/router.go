package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/furnihome/furnihome-backend/internal/handlers"
	"github.com/furnihome/furnihome-backend/internal/logger"
	"github.com/furnihome/furnihome-backend/internal/middleware"
	"github.com/furnihome/furnihome-backend/internal/types"
)

type RouterConfig struct {
	Log              *logger.Logger
	AllowedOrigins   []string
	AuthHandler      *handlers.AuthHandler
	AuthMiddleware   *middleware.AuthMiddleware
	ProfileHandler   *handlers.ProfileHandler
	CatalogHandler   *handlers.CatalogHandler
	FavoritesHandler *handlers.FavoritesHandler
	CartHandler      *handlers.CartHandler
	WsHandler        gin.HandlerFunc
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(cfg.Log))

	//-----------------------------------------
	// Cors Setup
	//-----------------------------------------
	corsConfig := cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}
	if len(cfg.AllowedOrigins) == 0 {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	router.Use(cors.New(corsConfig))

	//-----------------------------------------
	// Health Routes
	//-----------------------------------------
	router.GET("/healthz", handlers.Healthz)

	//-----------------------------------------
	// Public Routes
	//-----------------------------------------
	api := router.Group("/api")
	{
		api.POST("/register", cfg.AuthHandler.Register)
		api.POST("/register/confirm", cfg.AuthHandler.ConfirmEmail)
		api.POST("/otp/resend", cfg.AuthHandler.ResendOTP)
		api.POST("/login", cfg.AuthHandler.Login)
		api.POST("/token/refresh", cfg.AuthHandler.Refresh)
		api.POST("/password/reset", cfg.AuthHandler.RequestPasswordReset)
		api.POST("/password/reset/confirm", cfg.AuthHandler.ConfirmPasswordReset)
	}

	// Catalog reads are public; a valid token adds is_favorite.
	catalog := api.Group("/")
	catalog.Use(cfg.AuthMiddleware.OptionalAuth())
	{
		catalog.GET("/products", cfg.CatalogHandler.ListProducts)
		catalog.GET("/products/filter", cfg.CatalogHandler.FilterProducts)
		catalog.GET("/products/search", cfg.CatalogHandler.SearchProducts)
		catalog.GET("/products/:slug", cfg.CatalogHandler.GetProduct)
		catalog.GET("/categories/rooms", cfg.CatalogHandler.ListRoomCategories)
		catalog.GET("/categories/products", cfg.CatalogHandler.ListProductCategories)
		catalog.GET("/manufacturers", cfg.CatalogHandler.ListManufacturers)
		catalog.GET("/manufacturers/:slug", cfg.CatalogHandler.GetManufacturer)
	}

	//------------------------------------------
	// Protected Routes
	//------------------------------------------
	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	protected.POST("/logout", cfg.AuthHandler.Logout)
	protected.POST("/password/change", cfg.AuthHandler.ChangePassword)
	if cfg.WsHandler != nil {
		protected.GET("/ws", cfg.WsHandler)
	}

	// Profile
	protected.GET("/profile", cfg.ProfileHandler.GetProfile)
	protected.PUT("/profile", cfg.ProfileHandler.UpdateProfile)
	protected.POST("/profile/image", cfg.ProfileHandler.UploadImage)

	// Favorites
	protected.GET("/favorites", cfg.FavoritesHandler.List)
	protected.POST("/favorites", cfg.FavoritesHandler.Add)
	protected.DELETE("/favorites", cfg.FavoritesHandler.Clear)
	protected.DELETE("/favorites/:slug", cfg.FavoritesHandler.Remove)

	// Cart
	protected.GET("/cart", cfg.CartHandler.GetCart)
	protected.POST("/cart/item", cfg.CartHandler.AddItem)
	protected.GET("/cart/item/:slug", cfg.CartHandler.GetItem)
	protected.PUT("/cart/item/:slug", cfg.CartHandler.UpdateItem)
	protected.DELETE("/cart/item/:slug", cfg.CartHandler.DeleteItem)
	protected.DELETE("/cart/clear", cfg.CartHandler.Clear)

	//------------------------------------------
	// Staff Routes
	//------------------------------------------
	staff := api.Group("/products")
	staff.Use(cfg.AuthMiddleware.RequirePermission(types.PermissionManageCatalog))
	staff.POST("", cfg.CatalogHandler.CreateProduct)
	staff.PUT("/:slug", cfg.CatalogHandler.UpdateProduct)
	staff.DELETE("/:slug", cfg.CatalogHandler.DeleteProduct)
	staff.POST("/:slug/images", cfg.CatalogHandler.AddProductImage)

	return router
}
