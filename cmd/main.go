package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/cropsense/cropsense-backend/internal/clients/gcp"
	"github.com/cropsense/cropsense-backend/internal/data/db"
	"github.com/cropsense/cropsense-backend/internal/data/predictions"
	authrepo "github.com/cropsense/cropsense-backend/internal/data/repos/auth"
	userrepo "github.com/cropsense/cropsense-backend/internal/data/repos/user"
	"github.com/cropsense/cropsense-backend/internal/http/handlers"
	"github.com/cropsense/cropsense-backend/internal/http/middleware"
	"github.com/cropsense/cropsense-backend/internal/pkg/logger"
	"github.com/cropsense/cropsense-backend/internal/server"
	"github.com/cropsense/cropsense-backend/internal/services"
	"github.com/cropsense/cropsense-backend/internal/utils"
)

func main() {
	_ = godotenv.Load()

	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	serviceKey := utils.GetEnv("SERVICE_KEY", "", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	port := utils.GetEnv("PORT", "8080", log)
	if serviceKey == "" {
		log.Warn("SERVICE_KEY not set, /signup is unprotected")
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	pg := postgresService.DB()

	// Repos
	userRepo := userrepo.NewUserRepo(pg, log)
	userTokenRepo := authrepo.NewUserTokenRepo(pg, log)

	// Prediction store: Redis when configured, in-memory otherwise.
	var store predictions.Store
	if os.Getenv("REDIS_ADDR") != "" {
		store, err = predictions.NewRedisStore(log)
		if err != nil {
			log.Fatal("Redis init failed", "error", err)
		}
	} else {
		log.Warn("REDIS_ADDR not set, predictions are kept in memory")
		store = predictions.NewMemoryStore()
	}

	// Image storage
	var bucketService gcp.BucketService
	bucketService, err = gcp.NewBucketService(log)
	if err != nil {
		log.Warn("Image storage unavailable, uploads will fail", "error", err)
		bucketService = nil
	}

	// External classifier
	detector, err := gcp.NewLabelDetector(log)
	if err != nil {
		log.Fatal("Label detector init failed", "error", err)
	}
	defer detector.Close()

	// Services
	authService := services.NewAuthService(
		pg, log, userRepo, userTokenRepo,
		jwtSecretKey,
		time.Duration(accessTokenTTL)*time.Second,
		time.Duration(refreshTokenTTL)*time.Second,
	)
	resolver := services.NewKeywordResolver(nil)
	predictionService := services.NewPredictionService(log, store, detector, resolver, bucketService)
	uploadService := services.NewUploadService(log, bucketService)

	// Handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService)
	uploadHandler := handlers.NewUploadHandler(uploadService)
	predictionHandler := handlers.NewPredictionHandler(predictionService)

	// Middleware + router
	authMiddleware := middleware.NewAuthMiddleware(log, authService)
	router := server.NewRouter(server.RouterConfig{
		Log:               log,
		ServiceKey:        serviceKey,
		AuthMiddleware:    authMiddleware,
		HealthHandler:     healthHandler,
		AuthHandler:       authHandler,
		UploadHandler:     uploadHandler,
		PredictionHandler: predictionHandler,
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("Server error", "error", err)
	}
	log.Info("Server stopped")
}
