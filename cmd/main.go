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

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	echoSwagger "github.com/swaggo/echo-swagger"

	"cardapio/docs"
	"cardapio/internal/caching"
	"cardapio/internal/config"
	"cardapio/internal/handlers"
	"cardapio/internal/jobs"
	"cardapio/internal/media"
	"cardapio/internal/metrics"
	"cardapio/internal/middleware"
	"cardapio/internal/models"
	"cardapio/internal/repositories"
	"cardapio/internal/services"
	"cardapio/internal/storage"
	"cardapio/pkg/database"
)

const version = "1.0.0"

//	@title						Cardapio Catalog API
//	@version					1.0
//	@description				Product catalog with image upload, resizing and thumbnail storage.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
func main() {
	cfg := config.Load()
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL environment variable is required")
	}

	if cfg.RunMigrations {
		if err := database.Migrate(cfg.DatabaseURL); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	// JWT configuration
	if cfg.JWTSecret == "" && cfg.JWKSURL == "" {
		if cfg.IsProduction() {
			log.Fatal().Msg("JWT_SECRET or JWKS_URL is required in production")
		}
		cfg.JWTSecret = random.String(32) // Generate random secret for development
		log.Warn().Msg("JWT_SECRET not set; using a generated secret, tokens will not survive a restart")
	}
	auth, err := middleware.NewAuthenticator(middleware.AuthConfig{Secret: cfg.JWTSecret, JWKSURL: cfg.JWKSURL})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure authentication")
	}
	defer auth.Close()

	// Redis is optional
	cacheSvc := caching.NewNoopCacheService()
	var remoteImages storage.RemoteCache
	if cfg.RedisAddr != "" {
		cacheSvc = caching.NewRedisCacheService(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		remoteImages = cacheSvc
	}
	defer cacheSvc.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	imageMetrics, err := metrics.NewImageMetrics(registry)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register metrics")
	}

	// Image pipeline
	store := storage.NewFileStore(cfg.UploadDir)
	if err := store.EnsureDir(); err != nil {
		// the pipeline retries on every ingest
		log.Warn().Err(err).Str("dir", store.Dir()).Msg("upload directory not ready")
	}
	reader := storage.NewCachedReader(store, cfg.ImageCacheEntries, remoteImages, cfg.ImageCacheTTL, imageMetrics)
	imageSvc := services.NewImageService(store, reader, media.NewTranscoder(cfg.JPEGQuality), services.ImageServiceConfig{
		MainBounds:      media.Bounds{Width: cfg.MainWidth, Height: cfg.MainHeight},
		ThumbnailBounds: media.Bounds{Width: cfg.ThumbWidth, Height: cfg.ThumbHeight},
	}, imageMetrics)

	// Create repositories
	productRepo := repositories.NewProductRepo(pool)
	productImageRepo := repositories.NewProductImageRepo(pool)

	productSvc := services.NewProductService(productRepo, productImageRepo, imageSvc, cacheSvc)

	// Background jobs
	sweeper := jobs.NewOrphanSweeper(store, productImageRepo, imageSvc, cfg.OrphanGracePeriod, imageMetrics)
	scheduler, err := jobs.NewJobScheduler(sweeper, cfg.OrphanSweepInterval)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create job scheduler")
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Error().Err(err).Msg("failed to stop job scheduler")
		}
	}()

	// Create handlers
	productHandlers := handlers.NewProductHandlers(productSvc, cfg.UploadMaxBytes)
	imageHandlers := handlers.NewImageHandlers(imageSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc, cfg.UploadDir, version)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(echoMiddleware.RequestID())
	e.Use(middleware.RequestLogger(log.Logger))
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Pre(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/health/live", healthHandlers.LivenessCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	docs.SwaggerInfo.Version = version
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Stored images
	e.GET(models.PublicImagePath+":name", imageHandlers.ServeImage)

	// API routes
	v1 := e.Group("/v1")
	v1.Use(middleware.VersionHeader("v1"))
	v1.GET("/products", productHandlers.ListProducts)
	v1.GET("/products/:id", productHandlers.GetProduct)

	// Protected routes (require JWT)
	// room for every file at its limit plus the text fields
	bodyLimit := fmt.Sprintf("%dB", cfg.UploadMaxBytes*10+(1<<20))
	protected := v1.Group("", auth.Middleware())
	protected.POST("/products", productHandlers.CreateProduct, echoMiddleware.BodyLimit(bodyLimit))
	protected.PUT("/products/:id", productHandlers.UpdateProduct, echoMiddleware.BodyLimit(bodyLimit))
	protected.DELETE("/products/:id", productHandlers.DeleteProduct)
	protected.DELETE("/products/:id/images/:imageId", productHandlers.DeleteProductImage)
	protected.POST("/products/:id/images/:imageId/principal", productHandlers.SetPrincipalImage)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("version", version).Msg("server starting")
		if err := e.StartServer(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsProduction() {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Str("service", "cardapio").Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Logger()
}
