package worker

import (
	"context"
	"errors"
	"time"

	"github.com/dcarvalho/projectdesk/internal/jobs"
)

// ProcessOne claims and runs a single job. The bool reports whether a job was
// claimed at all; an empty queue is not an error.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	j, err := w.repo.ClaimNext(claimCtx, w.cfg.WorkerID)
	cancel()

	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			return false, nil
		}
		return false, err
	}

	execErr := w.observeJob(string(j.Type), func() error {
		return w.execute(ctx, j)
	})

	if execErr != nil {
		w.handleFailure(ctx, j, execErr)
		return true, nil
	}

	if err := w.repo.MarkDone(ctx, j.ID); err != nil {
		_ = w.repo.MarkFailed(ctx, j.ID, "mark_done_failed: "+err.Error())
		return true, err
	}

	w.log.Info("job done", "job_id", j.ID, "type", j.Type, "attempt", j.Attempts)
	return true, nil
}

// handleFailure reschedules with backoff until attempts run out, then parks
// the job as failed for the admin retry endpoints.
func (w *Worker) handleFailure(ctx context.Context, j jobs.Job, execErr error) {
	// Attempts is bumped on reschedule, so a claimed job with Attempts=n is
	// on its (n+1)th run.
	if j.Attempts+1 >= j.MaxAttempts {
		if err := w.repo.MarkFailed(ctx, j.ID, execErr.Error()); err != nil {
			w.log.Error("mark failed", "job_id", j.ID, "error", err)
		}
		w.log.Error("job exhausted", "job_id", j.ID, "type", j.Type, "attempts", j.Attempts+1, "error", execErr)
		return
	}

	delay := ExponentialBackoff(j.Attempts)
	runAt := time.Now().UTC().Add(delay)

	if err := w.repo.Reschedule(ctx, j.ID, runAt, execErr.Error()); err != nil {
		w.log.Error("reschedule", "job_id", j.ID, "error", err)
		return
	}

	w.log.Warn("job retry scheduled", "job_id", j.ID, "type", j.Type, "attempt", j.Attempts+1, "delay", delay.String(), "error", execErr)
}

func (w *Worker) observeJob(jobType string, fn func() error) error {
	if w.prom == nil {
		return fn()
	}
	return w.prom.ObserveJob(jobType, func() (string, error) {
		return "", fn()
	})
}
