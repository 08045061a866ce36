package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/divvyapp/divvy/internal/infra/postgres"
	"github.com/divvyapp/divvy/internal/infra/redis"
	"github.com/divvyapp/divvy/internal/module/balance"
	"github.com/divvyapp/divvy/internal/module/expense"
	"github.com/divvyapp/divvy/internal/module/payment"
	"github.com/divvyapp/divvy/internal/platform/group"
	"github.com/divvyapp/divvy/internal/platform/user"
	"github.com/divvyapp/divvy/internal/transport/httpapi"
	"github.com/divvyapp/divvy/internal/transport/httpapi/handler"
	"github.com/divvyapp/divvy/internal/transport/httpapi/middleware"
	"github.com/divvyapp/divvy/pkg/config"
	"github.com/divvyapp/divvy/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.NewDefault("development").Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logger.NewDefault(cfg.Env)
	log.Info("Starting divvy API", "env", cfg.Env, "port", cfg.Port)

	// Database
	db, err := postgres.NewPool(ctx, postgres.Config{URL: cfg.DatabaseURL})
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	log.Info("Database connected and migrated")

	// Redis (balance cache)
	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info("Redis connected", "addr", cfg.RedisURL)

	// Repositories
	userRepo := postgres.NewUserRepository(db.Pool)
	groupRepo := postgres.NewGroupRepository(db.Pool)
	expenseRepo := postgres.NewExpenseRepository(db.Pool)
	paymentRepo := postgres.NewPaymentRepository(db.Pool)
	balanceCache := redis.NewBalanceCacheWithTTL(redisClient, cfg.BalanceCacheTTL, log)

	// Services
	userSvc := user.NewService(userRepo, log)
	balanceSvc := balance.NewService(expenseRepo, paymentRepo, groupRepo, balanceCache, groupRepo, log)
	groupSvc := group.NewService(groupRepo, balanceSvc, log)
	expenseSvc := expense.NewService(expenseRepo, balanceSvc, log)
	paymentSvc := payment.NewService(paymentRepo, expenseRepo, balanceSvc, log)
	jwtSvc := middleware.NewJWTService(cfg.JWTSecret)
	log.Info("Services initialized")

	// HTTP handlers
	authHandler := handler.NewAuthHandler(userSvc, jwtSvc)
	groupHandler := handler.NewGroupHandler(groupSvc, userSvc)
	eventHandler := handler.NewEventHandler(groupSvc, balanceSvc)
	expenseHandler := handler.NewExpenseHandler(expenseSvc, groupSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc, groupSvc)
	balanceHandler := handler.NewBalanceHandler(balanceSvc, groupSvc)
	healthHandler := handler.NewHealthHandler(db, balanceCache)

	jwtMiddleware := middleware.JWTMiddleware(jwtSvc)

	allowedOrigins := []string{"http://localhost:5173", "http://localhost:5174"}
	if cfg.IsProduction() {
		if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
			allowedOrigins = []string{origins}
		}
	}

	r := httpapi.NewRouter(httpapi.Config{
		Logger:         log,
		AllowedOrigins: allowedOrigins,
		AuthHandler:    authHandler,
		GroupHandler:   groupHandler,
		EventHandler:   eventHandler,
		ExpenseHandler: expenseHandler,
		PaymentHandler: paymentHandler,
		BalanceHandler: balanceHandler,
		HealthHandler:  healthHandler,
		JWTMiddleware:  jwtMiddleware,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("Server stopped")
}
