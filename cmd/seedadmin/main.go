package main

import (
	"context"
	"log"

	"academy-api/internal/config"
	"academy-api/internal/db"
	"academy-api/internal/repository"
	"academy-api/internal/service"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Crea el usuario admin configurado via ADMIN_EMAIL/ADMIN_PASSWORD si no
// existe. Pensado para correr una sola vez en el deploy.
func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD are required")
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := db.RunMigrations(ctx, cfg); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)
	authSvc := service.NewAuthService(logger, userRepo, nil, nil, nil, cfg.BcryptCost, cfg.BaseURL)

	if err := authSvc.SeedAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Fatal("admin seed failed", zap.Error(err))
	}
	logger.Info("admin user ready", zap.String("email", cfg.AdminEmail))
}
