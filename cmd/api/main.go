package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"academy-api/internal/config"
	"academy-api/internal/db"
	"academy-api/internal/email"
	apihttp "academy-api/internal/http"
	"academy-api/internal/repository"
	"academy-api/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
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
	bookRepo := repository.NewPgBookRepository(pool)
	lectureRepo := repository.NewPgLectureRepository(pool)
	groupRepo := repository.NewPgGroupRepository(pool)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	var (
		resendLimiter service.ResendRateLimiter
		revokedStore  service.RevokedTokenStore
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			resendLimiter = service.NewRedisResendRateLimiter(redisClient, 10*time.Minute, 3)
			revokedStore = service.NewRedisRevokedTokenStore(redisClient)
		}
		cancel()
	}

	jwtSvc := service.NewJWTServiceWithStore(cfg.JWTSecret, 2*time.Hour, 24*time.Hour, revokedStore)
	authSvc := service.NewAuthService(logger, userRepo, emailSender, jwtSvc, resendLimiter, cfg.BcryptCost, cfg.BaseURL)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := authSvc.SeedAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			logger.Warn("admin seed failed", zap.Error(err))
		}
	}

	authHandler := apihttp.NewAuthHandler(logger, authSvc, jwtSvc)
	bookHandler := apihttp.NewBookHandler(logger, bookRepo, cfg.UploadDir)
	lectureHandler := apihttp.NewLectureHandler(logger, lectureRepo)
	groupHandler := apihttp.NewGroupHandler(logger, groupRepo)
	router := apihttp.NewRouter(logger, jwtSvc, userRepo, authHandler, bookHandler, lectureHandler, groupHandler, cfg.UploadDir)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
