package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dcarvalho/projectdesk/internal/config"
	"github.com/dcarvalho/projectdesk/internal/db"
	"github.com/dcarvalho/projectdesk/internal/notifications"
	"github.com/dcarvalho/projectdesk/internal/observability"
	"github.com/dcarvalho/projectdesk/internal/queue/worker"
	"github.com/dcarvalho/projectdesk/internal/repo/postgres"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	pool, err := db.NewPool(cfg.DBURL)
	if err != nil {
		log.Error("database connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	jobsRepo := postgres.NewJobsRepo(pool, prom)
	inbox := postgres.NewNotificationsRepo(pool, prom)

	notifier := notifications.NewProtectedNotifier(
		notifications.NewLogNotifier(),
		notifications.ProtectedNotifierConfig{},
	)

	host, _ := os.Hostname()
	workerID := host + "-" + strconv.Itoa(os.Getpid())

	w := worker.New(worker.Config{
		PollInterval:  100 * time.Millisecond,
		WorkerID:      workerID,
		Concurrency:   4,
		LockTTL:       60 * time.Second,
		ShutdownGrace: 10 * time.Second,
	}, jobsRepo, inbox, notifier, log, prom)

	// health endpoints for the orchestrator's probes
	healthSrv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port+1),
		Handler:           w.HealthHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("health server failed", "err", err)
		}
	}()

	log.Info("worker started", "worker_id", workerID)

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	shutdownCtx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("health server shutdown failed", "err", err)
	}

	log.Info("worker shutdown complete")
}
