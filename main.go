package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/stickerverse/custom-sticker-shop-sub001/auth"
	marketplaceControllers "github.com/stickerverse/custom-sticker-shop-sub001/controllers/marketplace"
	paymentControllers "github.com/stickerverse/custom-sticker-shop-sub001/controllers/payment"
	"github.com/stickerverse/custom-sticker-shop-sub001/logger"
	"github.com/stickerverse/custom-sticker-shop-sub001/models"
	"github.com/stickerverse/custom-sticker-shop-sub001/routes"
	"github.com/stickerverse/custom-sticker-shop-sub001/ws"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()
	defer log.Sync()

	db := initDatabase(log)

	if err := db.AutoMigrate(
		&models.User{},
		&models.GuestUser{},
		&models.Product{},
		&models.Category{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Conversation{},
		&models.Message{},
	); err != nil {
		log.Fatal("auto-migrate failed", zap.Error(err))
	}

	if err := paymentControllers.InitStripe(); err != nil {
		log.Fatal("stripe init failed", zap.Error(err))
	}

	var listings marketplaceControllers.ListingSource
	ebay, err := marketplaceControllers.NewEbayClientFromEnv()
	if err != nil {
		// The storefront runs fine without the import integration.
		log.Warn("marketplace import disabled", zap.Error(err))
		listings = marketplaceControllers.DisabledSource{}
	} else {
		listings = ebay
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-KEY"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.SetupRoutes(r, routes.Deps{
		DB:        db,
		Logger:    log,
		Hub:       ws.NewHub(log),
		Blacklist: auth.NewBlacklistFromEnv(),
		Listings:  listings,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Info("starting server", zap.String("port", port))
	if err := r.Run(":" + port); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func corsOrigins() []string {
	if origin := os.Getenv("CORS_ORIGIN"); origin != "" {
		return []string{origin}
	}
	return []string{"*"}
}

func initDatabase(log *zap.Logger) *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		envOrDefault("DB_SSLMODE", "disable"),
	)

	var db *gorm.DB
	var err error
	for attempt := 1; attempt <= 5; attempt++ {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err == nil {
			return db
		}
		log.Warn("database connection failed, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err))
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	log.Fatal("could not connect to database", zap.Error(err))
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
