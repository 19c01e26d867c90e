package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dcarvalho/projectdesk/internal/domain/activity"
	"github.com/dcarvalho/projectdesk/internal/jobs"
	"github.com/dcarvalho/projectdesk/internal/notifications"
	"github.com/dcarvalho/projectdesk/internal/observability"
)

type JobsRepository interface {
	ClaimNext(ctx context.Context, workerID string) (jobs.Job, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error
	RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error)
}

type NotificationsStore interface {
	Create(ctx context.Context, n activity.Notification) error
}

type Config struct {
	PollInterval  time.Duration
	WorkerID      string
	Concurrency   int
	LockTTL       time.Duration
	ShutdownGrace time.Duration
}

type Worker struct {
	cfg      Config
	repo     JobsRepository
	inbox    NotificationsStore
	notifier notifications.Notifier
	log      *slog.Logger
	prom     *observability.Prom

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, repo JobsRepository, inbox NotificationsStore, notifier notifications.Notifier, log *slog.Logger, prom *observability.Prom) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 250 * time.Millisecond
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 60 * time.Second
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}

	return &Worker{
		cfg:      cfg,
		repo:     repo,
		inbox:    inbox,
		notifier: notifier,
		log:      log,
		prom:     prom,
	}
}

// Run polls until ctx is cancelled. Each poll loop claims and processes at
// most one job; Concurrency loops run in parallel.
func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	defer w.setReady(false)

	var wg sync.WaitGroup

	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.poll(ctx)
		}()
	}

	// A single loop frees jobs whose worker died mid-processing.
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.reapStale(ctx)
	}()

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-ctx.Done():
		// Let in-flight jobs wrap up; the stale reaper hands anything
		// abandoned past this point to another worker.
		select {
		case <-finished:
		case <-time.After(w.cfg.ShutdownGrace):
			w.log.Warn("shutdown grace elapsed with jobs in flight", "worker_id", w.cfg.WorkerID)
		}
	}

	w.log.Info("worker shutdown complete", "worker_id", w.cfg.WorkerID)
	return nil
}

func (w *Worker) poll(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Drain until the queue is empty, then go back to polling.
			for {
				processed, err := w.ProcessOne(ctx)
				if err != nil {
					w.log.Error("process job", "error", err)
					break
				}
				if !processed {
					break
				}
			}
		}
	}
}

func (w *Worker) reapStale(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.LockTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := w.repo.RequeueStaleProcessing(ctx, w.cfg.LockTTL)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					w.log.Error("requeue stale jobs", "error", err)
				}
				continue
			}
			if n > 0 {
				w.log.Warn("requeued stale jobs", "count", n)
			}
		}
	}
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}
