package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	apperrors "catalog-service/common/errors"
	"catalog-service/common/logger"
	"catalog-service/common/middleware"
	"catalog-service/controllers"
	"catalog-service/database"
	"catalog-service/enrichment"
	"catalog-service/models"
	aws_pkg "catalog-service/pkg/aws"
	"catalog-service/providers"
	"catalog-service/repository"
	"catalog-service/routes"
	"catalog-service/services"
	"catalog-service/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := LoadConfig(rootCtx, func(c *Config) (SecretGetter, error) {
		awsCfg, err := aws_pkg.LoadAWSConfig(rootCtx, awsOptions(c))
		if err != nil {
			return nil, err
		}
		return aws_pkg.NewSecretsClient(awsCfg), nil
	})
	if err != nil {
		log.Fatalf("Config load failed: %v", err)
	}

	// --- AWS setup (non-fatal) ---
	awsCfg, awsErr := aws_pkg.LoadAWSConfig(rootCtx, awsOptions(cfg))

	var sink io.Writer
	if cfg.CloudWatchLogs && awsErr == nil {
		if cwl, err := aws_pkg.NewCloudWatchLogsClient(rootCtx, awsCfg, "", cfg.Service); err == nil {
			sink = cwl
		} else {
			log.Printf("CloudWatch Logs disabled: %v", err)
		}
	}

	zapLogger, err := logger.New(cfg.AppEnv, sink)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	zap.ReplaceGlobals(zapLogger)

	if awsErr != nil {
		zapLogger.Warn("AWS config unavailable, CloudWatch and S3 disabled", zap.Error(awsErr))
	}

	var metricsClient *aws_pkg.MetricsClient
	if awsErr == nil {
		metricsClient = aws_pkg.NewMetricsClient(awsCfg, "Catalog", cfg.CloudWatchStats)
	}

	// --- Database ---
	db, err := database.Connect(cfg.Postgres, zapLogger, &models.Seller{}, &models.Product{})
	if err != nil {
		zapLogger.Fatal("DB connection failed", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zapLogger.Fatal("DB handle unavailable", zap.Error(err))
	}

	// --- Redis (optional) ---
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(rootCtx, cfg.RedisURL)
		if err != nil {
			zapLogger.Warn("Redis unavailable, product cache disabled", zap.Error(err))
		} else {
			zapLogger.Info("Connected to Redis")
		}
	}

	// --- Media store ---
	var mediaStore storage.MediaStore = storage.NewLocalStore(cfg.MediaDir)
	if cfg.MediaStore == "s3" {
		if awsErr != nil {
			zapLogger.Fatal("MEDIA_STORE=s3 requires AWS config", zap.Error(awsErr))
		}
		mediaStore = storage.NewS3Store(aws_pkg.NewS3Client(awsCfg), cfg.S3)
	}

	// --- Enrichment ---
	var textProvider providers.TextGenerator
	if cfg.GeminiAPIKey != "" {
		geminiCfg := cfg.Gemini
		geminiCfg.APIKey = cfg.GeminiAPIKey
		textProvider = providers.NewGeminiProvider(geminiCfg)
	}
	enricher := enrichment.NewService(enrichment.Config{
		Text:    textProvider,
		Images:  enrichment.BuildImageChain(cfg.ImageChain, cfg.Providers, zapLogger),
		Store:   mediaStore,
		Metrics: metricsClient,
		Logger:  zapLogger,
	})

	// --- Dependency injection ---
	tokenService, err := services.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL)
	if err != nil {
		zapLogger.Fatal("Token service init failed", zap.Error(err))
	}
	sellerService := services.NewSellerService(
		repository.NewGormSellerRepository(db),
		services.NewBcryptHasher(cfg.BcryptCost),
		tokenService,
		metricsClient,
		zapLogger,
	)
	productService := services.NewProductService(
		repository.NewGormProductRepository(db),
		enricher,
		metricsClient,
		zapLogger,
	)
	cache := controllers.NewCacheManager(redisClient, metricsClient, zapLogger)

	// --- HTTP router ---
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(zapLogger))
	r.Use(middleware.MetricsMiddleware(metricsClient, cfg.Service))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	r.Use(apperrors.ErrorMiddleware())

	if cfg.MediaStore == "local" {
		r.Static("/media", cfg.MediaDir)
	}

	routes.RegisterRoutes(r, routes.Controllers{
		Auth:    controllers.NewAuthController(sellerService),
		Sellers: controllers.NewSellerController(sellerService, cache),
		Product: controllers.NewProductController(productService, cache, cfg.MediaDir),
		System:  controllers.NewSystemController(cfg.Service, sqlDB, enricher),
	}, sellerService, middleware.NewRateLimiter(rootCtx, rate.Every(time.Minute/20), 10, 5*time.Minute))

	// --- HTTP server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zapLogger.Info("Catalog Service started",
			zap.String("port", cfg.Port),
			zap.Bool("text_provider", enricher.TextEnabled()),
			zap.Strings("image_chain", enricher.ImageChain()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	<-rootCtx.Done()
	zapLogger.Info("Initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server shutdown error", zap.Error(err))
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			zapLogger.Error("Redis close error", zap.Error(err))
		}
	}
	if err := database.Close(db); err != nil {
		zapLogger.Error("Database close error", zap.Error(err))
	}
	zapLogger.Info("Catalog Service stopped gracefully")
}

func awsOptions(cfg *Config) aws_pkg.Options {
	return aws_pkg.Options{
		Region:          cfg.AWSRegion,
		Endpoint:        cfg.AWSEndpoint,
		AccessKeyID:     cfg.AWSAccessKey,
		SecretAccessKey: cfg.AWSSecretKey,
	}
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	}
	return c
}
