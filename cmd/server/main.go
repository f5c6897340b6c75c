package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/saitewasreset/DRG-MissionMonitor/internal/cache"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/config"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/handlers"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/mapping"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/store"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var logger *zap.Logger
	if cfg.Env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return fmt.Errorf("cannot build logger: %w", err)
	}
	defer logger.Sync()

	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres
	pgPool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		return fmt.Errorf("cannot create postgres pool: %w", err)
	}
	defer pgPool.Close()

	if err := pgPool.Ping(ctx); err != nil {
		return fmt.Errorf("cannot reach postgres: %w", err)
	}

	// Redis
	redisOptions, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("cannot parse redis url: %w", err)
	}
	redisClient := redis.NewClient(redisOptions)
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		sugar.Warnw("cannot reach redis, caches will rebuild on demand", "error", err)
	}

	// Shared upload-controlled state
	state, err := mapping.NewState(cfg.InstancePath, logger)
	if err != nil {
		return fmt.Errorf("cannot initialize shared state: %w", err)
	}

	st := store.New(pgPool)
	cacheManager := cache.NewManager(st, cache.NewRedisKV(redisClient), logger)

	pool := worker.NewPool(worker.PoolConfig{
		WorkerCount: cfg.WorkerCount,
		QueueSize:   cfg.QueueSize,
		Logger:      logger,
	})
	pool.Start()
	defer pool.Stop()

	handler := handlers.New(handlers.Config{
		Pool:         pool,
		Store:        st,
		Cache:        cacheManager,
		State:        state,
		Postgres:     pgPool,
		Redis:        redisClient,
		Logger:       logger,
		AccessToken:  cfg.AccessToken,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})

	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Access-Token"},
		AllowCredentials: true,
	}))
	router.Mount("/", handler.Routes())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		sugar.Infow("server listening", "port", cfg.Port, "env", cfg.Env)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		sugar.Info("shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("graceful shutdown failed", "error", err)
		return err
	}

	return nil
}
