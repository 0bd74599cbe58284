// Package main is the entry point for the gasworld API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gasworld/internal/domain/auth"
	"gasworld/internal/domain/authz"
	"gasworld/internal/domain/pit"
	"gasworld/internal/domain/product"
	"gasworld/internal/domain/reading"
	"gasworld/internal/domain/sales"
	"gasworld/internal/domain/station"
	"gasworld/internal/infrastructure/cache"
	v1 "gasworld/internal/infrastructure/http/v1"
	"gasworld/internal/infrastructure/storage/postgres"
	"gasworld/internal/infrastructure/storage/postgres/auth_repo"
	"gasworld/internal/infrastructure/storage/postgres/pipeline_repo"
	"gasworld/internal/infrastructure/storage/postgres/registry_repo"
	"gasworld/pkg/logger"
	"gasworld/pkg/numerator"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting gasworld server")

	// --- Database ---
	dsn := mustEnv("DATABASE_URL")
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Cache ---
	var store cache.Store
	if addr := getEnv("REDIS_ADDR", ""); addr != "" {
		redisStore := cache.NewRedisStore(addr, getEnv("REDIS_PASSWORD", ""), 0)
		if err := redisStore.Ping(ctx); err != nil {
			log.Fatalw("failed to ping redis", "error", err)
		}
		defer redisStore.Close()
		store = redisStore
		log.Infow("redis cache connected", "addr", addr)
	} else {
		store = cache.NewMemoryStore()
		log.Warn("REDIS_ADDR not set, using in-process cache")
	}

	// --- Repositories ---
	userRepo := auth_repo.NewUserRepo(txManager)
	tokenRepo := auth_repo.NewRefreshTokenRepo(txManager)
	stationRepo := registry_repo.NewStationRepo(txManager)
	productRepo := registry_repo.NewProductRepo(txManager)
	pumpRepo := registry_repo.NewPumpRepo(txManager)
	readingRepo := pipeline_repo.NewReadingRepo(txManager)
	salesRepo := pipeline_repo.NewSalesRepo(txManager)
	pitRepo := pipeline_repo.NewPitRepo(txManager)

	// --- Audit ---
	sink, err := postgres.NewAuditSink(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit sink", "error", err)
	}

	// --- Authorization guard ---
	bindings := auth.NewBindings(userRepo, readingRepo)
	guard := authz.NewGuard(store, bindings)

	// --- Services ---
	tokenManager := auth.NewTokenManager(mustEnv("JWT_SECRET"))
	authService := auth.NewService(userRepo, tokenRepo, tokenManager, guard, txManager)
	stationService := station.NewService(stationRepo, txManager)
	productService := product.NewService(productRepo, pumpRepo)
	pitService := pit.NewService(pitRepo, guard, txManager, sink)
	salesService := sales.NewService(salesRepo, readingRepo, guard, txManager, sink)

	numeratorService := numerator.New(postgres.NewQuerierAdapter(txManager))
	recorder := reading.NewRecorder(readingRepo, pumpRepo, guard, txManager, sink)
	recorder.RegisterBuilder(sales.NewBuilder(salesRepo, sales.NewNumeratorSource(numeratorService)))
	recorder.RegisterBuilder(pit.NewBuilder(pitService))

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:           pool,
		Logger:         log,
		TokenVerifier:  tokenManager,
		AuthService:    authService,
		StationService: stationService,
		ProductService: productService,
		PitService:     pitService,
		Recorder:       recorder,
		SalesService:   salesService,
		AuditSource:    sink,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}
