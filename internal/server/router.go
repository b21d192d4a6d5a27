package server

import (
	"github.com/gin-gonic/gin"

	"github.com/cropsense/cropsense-backend/internal/http/handlers"
	"github.com/cropsense/cropsense-backend/internal/http/middleware"
	"github.com/cropsense/cropsense-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log               *logger.Logger
	ServiceKey        string
	AuthMiddleware    *middleware.AuthMiddleware
	HealthHandler     *handlers.HealthHandler
	AuthHandler       *handlers.AuthHandler
	UploadHandler     *handlers.UploadHandler
	PredictionHandler *handlers.PredictionHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestLogger(cfg.Log))

	// Public
	router.GET("/health", cfg.HealthHandler.HealthCheck)
	router.POST("/signup", middleware.RequireServiceKey(cfg.ServiceKey), cfg.AuthHandler.Signup)
	router.POST("/login", cfg.AuthHandler.Login)
	router.POST("/refresh", cfg.AuthHandler.Refresh)

	// Protected
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	protected.POST("/logout", cfg.AuthHandler.Logout)
	protected.POST("/upload-image", cfg.UploadHandler.UploadImage)
	protected.POST("/predict", cfg.PredictionHandler.Predict)
	protected.POST("/save-prediction", cfg.PredictionHandler.SavePrediction)
	protected.GET("/predictions", cfg.PredictionHandler.ListPredictions)
	protected.GET("/stats", cfg.PredictionHandler.Stats)
	protected.DELETE("/prediction/:id", cfg.PredictionHandler.DeletePrediction)

	return router
}
