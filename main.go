package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"degen-survivor-backend/config"
	"degen-survivor-backend/handlers"
	"degen-survivor-backend/models"
	"degen-survivor-backend/services"
	"degen-survivor-backend/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database: ", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Balance{},
		&models.Game{},
		&models.PlayerGame{},
		&models.Round{},
		&models.Prediction{},
		&models.OraclePrice{},
		&models.BlockchainEvent{},
	); err != nil {
		log.Fatal("failed to migrate database: ", err)
	}

	chain, err := services.NewChainClient(cfg)
	if err != nil {
		log.Fatal("failed to initialize chain client: ", err)
	}

	oracleService := services.NewOracleService(db, chain, cfg)
	scheduler := services.NewGameScheduler(db, chain, oracleService)
	queryService := services.NewQueryService(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventListener := workers.NewEventListener(db, chain)
	eventListener.Start(ctx)

	if err := scheduler.Start(); err != nil {
		log.Fatal("failed to start scheduler: ", err)
	}
	defer scheduler.Shutdown()

	app := fiber.New()
	handlers.SetupRoutes(app, queryService)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", cfg.Port)

	<-ctx.Done()
	log.Println("Shutting down server...")
	_ = app.Shutdown()
}
