package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/javiercordova77/colchonesw-app/config"
	"github.com/javiercordova77/colchonesw-app/internal/catalog/handler"
	"github.com/javiercordova77/colchonesw-app/internal/database"
	"github.com/javiercordova77/colchonesw-app/internal/middleware"
)

func main() {
	cfg := config.LoadConfig()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := database.NewConnection(database.DSN(cfg.DB))
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	}

	catalogHandler := handler.NewCatalogHandler(db, rdb, logger)

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.RateLimit(cfg.Server.RateLimit))

	api := r.Group("/api/v1")
	{
		products := api.Group("/products")
		{
			products.GET("", catalogHandler.ListVariants)
			products.GET("/summary", catalogHandler.ListProductSummary)
			products.GET("/code/:code", catalogHandler.GetVariantByCode)
			products.GET("/:id", catalogHandler.GetProduct)
			products.GET("/:id/variants/summary", catalogHandler.ListProductVariants)
			products.GET("/:id/edit", catalogHandler.GetEditBundle)
			products.PUT("/:id", catalogHandler.UpdateProduct)
		}
	}

	r.GET("/health", healthCheckHandler(db, rdb))

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Info("Server exited")
}

func healthCheckHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		httpStatus := http.StatusOK

		dbStatus := "healthy"
		if sqlDB, err := db.DB(); err != nil {
			dbStatus = "unavailable"
		} else if err := sqlDB.Ping(); err != nil {
			dbStatus = "unavailable"
		}
		if dbStatus != "healthy" {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}

		cacheStatus := "disabled"
		if rdb != nil {
			cacheStatus = "healthy"
			if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
				cacheStatus = "unavailable"
			}
		}

		c.JSON(httpStatus, gin.H{
			"status":    status,
			"database":  dbStatus,
			"cache":     cacheStatus,
			"timestamp": time.Now(),
		})
	}
}
