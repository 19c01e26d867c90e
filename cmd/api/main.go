package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dcarvalho/projectdesk/internal/auth"
	"github.com/dcarvalho/projectdesk/internal/cache"
	"github.com/dcarvalho/projectdesk/internal/config"
	"github.com/dcarvalho/projectdesk/internal/db"
	httpx "github.com/dcarvalho/projectdesk/internal/http"
	"github.com/dcarvalho/projectdesk/internal/observability"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional, real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	if cfg.OtelEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(context.Background(), "projectdesk-api", cfg.OtelEndpoint)
		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}
		defer func() {
			ctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()

			if err := shutdownTracer(ctx); err != nil {
				log.Error("tracer shutdown failed", "err", err)
			}
		}()
	}

	pool, err := db.NewPool(cfg.DBURL)
	if err != nil {
		log.Error("database connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	{
		ctx, cancel := config.WithTimeout(10 * time.Second)
		if err := db.EnsureAdminUser(ctx, pool, cfg); err != nil {
			log.Error("admin seed failed", "err", err)
		}
		cancel()
	}

	statsCache := cache.New(cache.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, time.Duration(cfg.StatsCacheTTLSeconds)*time.Second)
	defer statsCache.Close()

	jwt := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())

	router := httpx.NewRouter(cfg, log, pool, statsCache, jwt)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
