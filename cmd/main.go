package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"tireshop-service/internal/cart"
	"tireshop-service/internal/clients"
	"tireshop-service/internal/config"
	"tireshop-service/internal/handlers"
	"tireshop-service/internal/importer"
	"tireshop-service/internal/middleware"
	"tireshop-service/internal/repository"
)

// @title Tire Shop API
// @version 1.0.0
// @description Tire e-commerce storefront and admin API: catalog with SEO facet routing, session carts, checkout and bulk price-list import.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize Redis client
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v (continuing without Redis)", err)
		redisOpts = &redis.Options{Addr: "localhost:6379"}
	}
	redisClient := redis.NewClient(redisOpts)

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("WARNING: Failed to connect to Redis: %v (caching will be disabled)", err)
	} else {
		log.Println("✓ Redis connected successfully")
	}
	cancel()

	// Initialize repositories
	catalogRepo := repository.NewCatalogRepository(db, redisClient, logger)
	ordersRepo := repository.NewOrdersRepository(db, logger)

	// Initialize cart store
	cartStore := cart.NewRedisStore(redisClient, logger)

	// Initialize clients
	telegramClient := clients.NewTelegramClient(cfg.TelegramBotToken, cfg.TelegramChatID, logger)
	if !telegramClient.Enabled() {
		log.Println("TELEGRAM_BOT_TOKEN not set, order notifications disabled")
	}
	sheetsClient := clients.NewSheetsClient(cfg.GoogleCredentialsFile, cfg.GoogleSpreadsheetID, cfg.GoogleSheetRange, logger)

	// Initialize handlers
	catalogHandler := handlers.NewCatalogHandler(catalogRepo, cfg, logger)
	cartHandler := handlers.NewCartHandler(cartStore, catalogRepo, logger)
	checkoutHandler := handlers.NewCheckoutHandler(cartStore, catalogRepo, ordersRepo, telegramClient, logger)
	importHandler := handlers.NewImportHandler(importer.NewImporter(db, logger), sheetsClient, cfg, logger)
	adminHandler := handlers.NewAdminHandler(db, catalogRepo, ordersRepo, logger)

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())

	// Health check endpoints (no session required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.HealthCheck)

	// SEO plumbing
	router.GET("/sitemap.xml", catalogHandler.Sitemap)
	router.GET("/robots.txt", catalogHandler.Robots)

	// Public storefront
	storefront := router.Group("/")
	storefront.Use(middleware.Session())
	{
		storefront.GET("/tyres/*facets", catalogHandler.ListTyres)
		storefront.GET("/products/:slug", catalogHandler.GetProduct)
		storefront.GET("/search", catalogHandler.Search)
		storefront.GET("/facets", catalogHandler.FacetValues)

		storefront.GET("/cart", cartHandler.GetCart)
		storefront.POST("/cart/items", cartHandler.AddItem)
		storefront.PUT("/cart/items", cartHandler.UpdateItem)
		storefront.POST("/cart/items/ajax", cartHandler.AddItemAjax)
		storefront.DELETE("/cart/items/:productId", cartHandler.RemoveItem)

		storefront.POST("/checkout", checkoutHandler.Checkout)
		storefront.POST("/callback", checkoutHandler.Callback)
	}

	// Admin API
	admin := router.Group("/admin")
	admin.Use(middleware.AdminAuth(cfg.AdminToken))
	{
		admin.POST("/products", adminHandler.CreateProduct)
		admin.PUT("/products/:id", adminHandler.UpdateProduct)
		admin.DELETE("/products/:id", adminHandler.DeleteProduct)

		admin.GET("/brands", adminHandler.ListBrands)
		admin.POST("/brands", adminHandler.CreateBrand)

		admin.GET("/orders", adminHandler.ListOrders)
		admin.PATCH("/orders/:id/status", adminHandler.UpdateOrderStatus)

		admin.GET("/settings/markup", adminHandler.GetMarkup)
		admin.PUT("/settings/markup", adminHandler.UpdateMarkup)

		admin.GET("/import/template", importHandler.GetImportTemplate)
		admin.POST("/import", importHandler.ImportFile)
		admin.POST("/import/sheet", importHandler.SyncSheet)

		admin.POST("/maintenance/fix-names", adminHandler.FixProductNames)
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Start server
	port := cfg.Port

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Tire shop service starting on port %s", port)
		if err := router.Run(":" + port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	<-quit
	log.Println("Shutting down tireshop-service...")

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}

	log.Println("Tire shop service stopped")
}
