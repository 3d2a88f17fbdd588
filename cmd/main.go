package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/furnihome/furnihome-backend/internal/db"
	"github.com/furnihome/furnihome-backend/internal/handlers"
	"github.com/furnihome/furnihome-backend/internal/logger"
	"github.com/furnihome/furnihome-backend/internal/middleware"
	"github.com/furnihome/furnihome-backend/internal/otp"
	"github.com/furnihome/furnihome-backend/internal/password"
	"github.com/furnihome/furnihome-backend/internal/repos"
	"github.com/furnihome/furnihome-backend/internal/seed"
	"github.com/furnihome/furnihome-backend/internal/server"
	"github.com/furnihome/furnihome-backend/internal/services"
	"github.com/furnihome/furnihome-backend/internal/socket"
	"github.com/furnihome/furnihome-backend/internal/utils"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	// Logger Setup
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Environment Variables
	log.Info("Attempting to load environment variables for Main now...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "", log)
	if jwtSecretKey == "" {
		log.Error("JWT_SECRET_KEY must be set")
		os.Exit(1)
	}
	accessTokenTTL := utils.GetEnvAsSeconds("ACCESS_TOKEN_TTL", 86400, log)
	refreshTokenTTL := utils.GetEnvAsSeconds("REFRESH_TOKEN_TTL", 2592000, log)
	redisAddress := utils.GetEnv("REDIS_ADDRESS", "", log)
	redisPassword := utils.GetEnv("REDIS_PASSWORD", "", log)
	catalogCacheTTL := utils.GetEnvAsSeconds("CATALOG_CACHE_TTL", 300, log)
	otpSMSEnabled := utils.GetEnvAsBool("OTP_SMS_ENABLED", false, log)
	allowedOrigins := utils.GetEnvAsList("CORS_ALLOWED_ORIGINS", nil, log)
	otpPolicy := otp.DefaultPolicy()
	otpPolicy.TTL = utils.GetEnvAsSeconds("OTP_TTL_SECONDS", int(otp.DefaultTTL/time.Second), log)
	log.Debug("Environment variables loaded for Main :)",
		"accessTokenTTL", accessTokenTTL,
		"refreshTokenTTL", refreshTokenTTL,
		"redisAddress", redisAddress,
		"catalogCacheTTL", catalogCacheTTL,
		"otpTTL", otpPolicy.TTL,
		"otpSMSEnabled", otpSMSEnabled,
		"allowedOrigins", allowedOrigins,
	)

	// Postgres Setup
	log.Info("Setting Up Postgres from Main now...")
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("DB init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()
	log.Info("Postgres Setup From Main Successful :)")

	// Repositories Setup
	log.Info("Setting Up Repositories from Main now...")
	txm := repos.NewTxManager(thePG, log)
	userRepo := repos.NewUserRepo(thePG, log)
	permissionRepo := repos.NewPermissionRepo(thePG, log)
	roleRepo := repos.NewRoleRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	otpRepo := repos.NewOTPRepo(thePG, log)
	categoryRepo := repos.NewCategoryRepo(thePG, log)
	manufacturerRepo := repos.NewManufacturerRepo(thePG, log)
	productRepo := repos.NewProductRepo(thePG, log)
	favoriteRepo := repos.NewFavoriteRepo(thePG, log)
	cartRepo := repos.NewCartRepo(thePG, log)
	log.Info("Repositories Set Up From Main Successful :)")

	// Seed Setup
	log.Info("Attempting to Seed The Postgres From Main now...")
	seedRepos := seed.Repos{
		Permission:   permissionRepo,
		Role:         roleRepo,
		Category:     categoryRepo,
		Manufacturer: manufacturerRepo,
	}
	if err := seed.SeedAll(ctx, log, txm, seedRepos, utils.GetEnv("SEED_CATALOG_JSON_PATH", "", log)); err != nil {
		log.Warn("Failed to seed data :(", "error", err)
	}

	// Redis Setup
	var redisClient *redis.Client
	if redisAddress != "" {
		redisClient, err = db.ConnectRedis(ctx, log, redisAddress, redisPassword)
		if err != nil {
			log.Warn("Redis unavailable, running without catalog cache and cross-instance sockets", "error", err)
			redisClient = nil
		}
	}

	// Websocket Setup
	log.Info("Setting Up Websocket Hub From Main Now :)")
	wsHub := socket.NewHub(log)
	var redisPubSub *socket.RedisPubSub
	if redisClient != nil {
		redisPubSub = socket.NewRedisPubSub(log, redisClient, "furnihome_hub_broadcast")
		if err := redisPubSub.StartSubscriber(wsHub); err != nil {
			log.Warn("Failed to subscribe to Redis pub/sub", "error", err)
			redisPubSub = nil
		} else {
			wsHub.SetRelay(redisPubSub)
			log.Info("Redis pubsub is active!")
		}
	}

	// Services Setup
	log.Info("Setting up Services from Main now...")
	var notifier services.Notifier
	if emailService, err := services.NewEmailService(log); err == nil {
		notifier = services.NewEmailNotifier(log, emailService, services.EmailTypeAuthorization)
	} else if smtpService, smtpErr := services.NewSMTPEmailService(log); smtpErr == nil {
		notifier = services.NewEmailNotifier(log, smtpService, services.EmailTypeAuthorization)
	} else {
		log.Warn("No mail backend configured, notifications are only logged", "sendgrid", err, "smtp", smtpErr)
		notifier = services.NewLogNotifier(log)
	}
	var textService services.TextService
	if otpSMSEnabled {
		if textService, err = services.NewTextService(log); err != nil {
			log.Warn("Could not init TextService, OTP codes go by email only", "error", err)
			textService = nil
		}
	}
	bucketService, err := services.NewBucketService(ctx, log)
	if err != nil {
		log.Warn("Could not init BucketService, uploads are disabled", "error", err)
		bucketService = nil
	}
	var avatarService services.AvatarService
	if bucketService != nil {
		if avatarService, err = services.NewAvatarService(log, bucketService); err != nil {
			log.Warn("Could not init AvatarService, users start without an avatar", "error", err)
			avatarService = nil
		}
	}
	imageService := services.NewImageService(log, bucketService)

	var catalogCache services.CatalogCache = services.NoCache
	if redisClient != nil {
		catalogCache = services.NewRedisCatalogCache(log, redisClient, catalogCacheTTL)
	}

	otpService := services.NewOTPService(log, txm, otpRepo, notifier, textService, otpSMSEnabled, otpPolicy, otp.SystemClock)
	accountService := services.NewAccountService(log, userRepo, notifier, wsHub)
	credentialService := services.NewCredentialService(log, userRepo, password.NewCommonChecker(), notifier)
	authService := services.NewAuthService(log, txm, userRepo, userTokenRepo, roleRepo, otpService, accountService, credentialService, avatarService, jwtSecretKey, accessTokenTTL, refreshTokenTTL)
	profileService := services.NewProfileService(log, userRepo, imageService)
	catalogService := services.NewCatalogService(log, txm, productRepo, categoryRepo, manufacturerRepo, favoriteRepo, imageService, catalogCache)
	favoritesService := services.NewFavoritesService(log, txm, favoriteRepo, productRepo, wsHub)
	cartService := services.NewCartService(log, txm, cartRepo, productRepo, wsHub)
	log.Info("Services Set Up From Main Successful :)")

	// Router Setup
	router := server.NewRouter(server.RouterConfig{
		Log:              log,
		AllowedOrigins:   allowedOrigins,
		AuthHandler:      handlers.NewAuthHandler(authService),
		AuthMiddleware:   middleware.NewAuthMiddleware(log, authService, roleRepo),
		ProfileHandler:   handlers.NewProfileHandler(profileService),
		CatalogHandler:   handlers.NewCatalogHandler(catalogService),
		FavoritesHandler: handlers.NewFavoritesHandler(favoritesService),
		CartHandler:      handlers.NewCartHandler(cartService),
		WsHandler:        handlers.WsHandler(wsHub, log, allowedOrigins),
	})

	port := utils.GetEnv("PORT", "8080", log)
	srv := &http.Server{Addr: ":" + port, Handler: router}
	go func() {
		log.Info("Server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("Server shutdown failed", "error", err)
	}

	// On Shutdown
	if redisPubSub != nil {
		redisPubSub.Stop()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
