package main

import (
	"carcatalog/internal/api"        // Custom package for API handlers
	"carcatalog/internal/config"     // Custom package for configuration
	"carcatalog/internal/middleware" // Custom package for middleware
	"carcatalog/internal/service"    // Custom package for business services
	"context"                        // context package is needed for Redis operations
	"log"                            // log package is needed for logging

	// For loading .env files
	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/driver/mysql"         // MySQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Setup Data Source Name (DSN) and connect to the database.
	// TranslateError surfaces unique-key violations as gorm.ErrDuplicatedKey,
	// which the services rely on to close the registration and favorite races.
	dsn := cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + cfg.DBPort + ")/" + cfg.DBName + "?parseTime=true"
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Construct the services once and share them across handlers
	authService := service.NewAuthService(db, cfg.BcryptCost) // Credential service
	catalogService := service.NewCatalogService(db)           // Catalog query engine
	favoriteService := service.NewFavoriteService(db)         // Favorites ledger

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	// Auth routes
	r.POST("/auth/register", api.RegisterHandler(authService))                  // Registration endpoint
	r.POST("/auth/login", api.LoginHandler(authService, cfg.JWTSecret))         // Login endpoint
	r.POST("/auth/:id/change-password", api.ChangePasswordHandler(authService)) // Password change endpoint

	// Public catalog routes
	r.GET("/cars", api.ListCarsHandler(catalogService, redisClient))      // Catalog listing endpoint
	r.GET("/cars/search", api.SearchCarsHandler(catalogService))          // Search endpoint
	r.GET("/cars/brands", api.BrandsHandler(catalogService, redisClient)) // Distinct brands endpoint
	r.GET("/cars/:id", api.GetCarHandler(catalogService))                 // Single car endpoint

	// Catalog write routes (protected, admin only)
	adminCars := r.Group("/cars")
	adminCars.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.AdminOnlyMiddleware(db))
	adminCars.POST("", api.CreateCarHandler(catalogService, redisClient))       // Create car endpoint
	adminCars.PUT("/:id", api.UpdateCarHandler(catalogService, redisClient))    // Update car endpoint
	adminCars.DELETE("/:id", api.DeleteCarHandler(catalogService, redisClient)) // Delete car endpoint

	// Favorites routes (protected by JWT)
	favGroup := r.Group("/favorites")
	favGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	favGroup.GET("/user/:userId", api.ListUserFavoritesHandler(favoriteService)) // User favorites endpoint
	favGroup.POST("", api.AddFavoriteHandler(favoriteService))                   // Add favorite endpoint
	favGroup.DELETE("", api.RemoveFavoriteHandler(favoriteService))              // Remove favorite endpoint
	favGroup.GET("/check", api.CheckFavoriteHandler(favoriteService))            // Check favorite endpoint

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
