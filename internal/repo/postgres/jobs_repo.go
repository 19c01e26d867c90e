package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dcarvalho/projectdesk/internal/jobs"
	"github.com/dcarvalho/projectdesk/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrJobNotFailed = errors.New("job is not failed")

const jobColumns = `id, type, payload, status, attempts, max_attempts, run_at, locked_at, locked_by, last_error, created_at, updated_at`

type JobsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewJobsRepo(pool *pgxpool.Pool, prom *observability.Prom) *JobsRepo {
	return &JobsRepo{pool: pool, prom: prom}
}

func (r *JobsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func scanJob(row pgx.Row) (jobs.Job, error) {
	var j jobs.Job
	var typ, status string

	err := row.Scan(
		&j.ID, &typ, &j.Payload, &status,
		&j.Attempts, &j.MaxAttempts,
		&j.RunAt, &j.LockedAt, &j.LockedBy,
		&j.LastError, &j.CreatedAt, &j.UpdatedAt,
	)

	if err != nil {
		return jobs.Job{}, err
	}

	j.Type = jobs.JobType(typ)
	j.Status = jobs.JobStatus(status)
	return j, nil
}

func (r *JobsRepo) Create(ctx context.Context, j jobs.Job) error {
	return r.observe("jobs.create", func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO jobs (id, type, payload, status, attempts, max_attempts, run_at, locked_at, locked_by, last_error, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			j.ID, string(j.Type), j.Payload, string(j.Status),
			j.Attempts, j.MaxAttempts, j.RunAt, j.LockedAt, j.LockedBy, j.LastError,
			j.CreatedAt, j.UpdatedAt,
		)
		return err
	})
}

// ClaimNext atomically picks one runnable job using SKIP LOCKED so concurrent
// workers never claim the same row. ErrJobNotFound means the queue is empty.
func (r *JobsRepo) ClaimNext(ctx context.Context, workerID string) (jobs.Job, error) {
	var j jobs.Job
	var err error

	err = r.observe("jobs.claim_next", func() error {
		j, err = scanJob(r.pool.QueryRow(ctx, `
			WITH next AS (
				SELECT id
				FROM jobs
				WHERE status = 'pending'
				  AND run_at <= NOW()
				  AND attempts < max_attempts
				ORDER BY run_at ASC, created_at ASC
				FOR UPDATE SKIP LOCKED
				LIMIT 1
			)
			UPDATE jobs
			SET status = 'processing',
			    locked_at = NOW(),
			    locked_by = $1,
			    updated_at = NOW()
			WHERE id = (SELECT id FROM next)
			RETURNING `+jobColumns, workerID))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return jobs.Job{}, jobs.ErrJobNotFound
		}
		return jobs.Job{}, err
	}

	return j, nil
}

func (r *JobsRepo) MarkDone(ctx context.Context, id string) error {
	var tag pgconn.CommandTag
	var err error

	err = r.observe("jobs.mark_done", func() error {
		tag, err = r.pool.Exec(ctx, `
			UPDATE jobs
			SET status = 'done',
			    locked_at = NULL,
			    locked_by = NULL,
			    last_error = NULL,
			    updated_at = NOW()
			WHERE id = $1`, id)
		return err
	})

	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return jobs.ErrJobNotFound
	}
	return nil
}

// Reschedule puts a job back in the pending state with a bumped attempt
// counter, to run again at runAt.
func (r *JobsRepo) Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error {
	var tag pgconn.CommandTag
	var err error

	err = r.observe("jobs.reschedule", func() error {
		tag, err = r.pool.Exec(ctx, `
			UPDATE jobs
			SET status = 'pending',
			    attempts = attempts + 1,
			    run_at = $2,
			    locked_at = NULL,
			    locked_by = NULL,
			    last_error = $3,
			    updated_at = NOW()
			WHERE id = $1`, id, runAt, errMsg)
		return err
	})

	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return jobs.ErrJobNotFound
	}
	return nil
}

func (r *JobsRepo) MarkFailed(ctx context.Context, id string, errMsg string) error {
	var tag pgconn.CommandTag
	var err error

	err = r.observe("jobs.mark_failed", func() error {
		tag, err = r.pool.Exec(ctx, `
			UPDATE jobs
			SET status = 'failed',
			    attempts = attempts + 1,
			    locked_at = NULL,
			    locked_by = NULL,
			    last_error = $2,
			    updated_at = NOW()
			WHERE id = $1`, id, errMsg)
		return err
	})

	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return jobs.ErrJobNotFound
	}
	return nil
}

// RequeueStaleProcessing frees jobs whose worker died while holding the lock.
func (r *JobsRepo) RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error) {
	secs := int64(lockTTL.Seconds())
	if secs <= 0 {
		secs = 30
	}

	var rows int64

	err := r.observe("jobs.requeue_stale", func() error {
		tag, err := r.pool.Exec(ctx, `
			UPDATE jobs
			SET status = 'pending',
			    locked_at = NULL,
			    locked_by = NULL,
			    updated_at = NOW()
			WHERE status = 'processing'
			  AND locked_at IS NOT NULL
			  AND locked_at < NOW() - ($1 * INTERVAL '1 second')`, secs)
		if err != nil {
			return err
		}
		rows = tag.RowsAffected()
		return nil
	})

	return rows, err
}

// Admin ops endpoints

func (r *JobsRepo) List(ctx context.Context, status *string, page, limit int) ([]jobs.Job, int, error) {
	var conds []string
	var args []interface{}

	pos := 1

	if status != nil {
		conds = append(conds, fmt.Sprintf("status = $%d", pos))
		args = append(args, *status)
		pos++
	}

	query := `SELECT ` + jobColumns + `, COUNT(*) OVER() AS total FROM jobs`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY updated_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, (page-1)*limit)

	var out []jobs.Job
	var total int

	err := r.observe("jobs.admin.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var j jobs.Job
			var typ, st string

			err = rows.Scan(
				&j.ID, &typ, &j.Payload, &st,
				&j.Attempts, &j.MaxAttempts,
				&j.RunAt, &j.LockedAt, &j.LockedBy,
				&j.LastError, &j.CreatedAt, &j.UpdatedAt,
				&total,
			)
			if err != nil {
				return err
			}

			j.Type = jobs.JobType(typ)
			j.Status = jobs.JobStatus(st)
			out = append(out, j)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, 0, err
	}

	if out == nil {
		out = []jobs.Job{}
	}

	return out, total, nil
}

func (r *JobsRepo) GetByID(ctx context.Context, id string) (jobs.Job, error) {
	var j jobs.Job
	var err error

	err = r.observe("jobs.admin.get_by_id", func() error {
		j, err = scanJob(r.pool.QueryRow(ctx,
			`SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return jobs.Job{}, jobs.ErrJobNotFound
		}
		return jobs.Job{}, err
	}

	return j, nil
}

// Retry requeues a single failed job. Only failed jobs are retryable.
func (r *JobsRepo) Retry(ctx context.Context, id string) error {
	var status string

	err := r.observe("jobs.admin.retry.check_status", func() error {
		return r.pool.QueryRow(ctx, `SELECT status FROM jobs WHERE id = $1`, id).Scan(&status)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return jobs.ErrJobNotFound
		}
		return err
	}

	if status != string(jobs.JobFailed) {
		return ErrJobNotFailed
	}

	return r.observe("jobs.admin.retry.requeue", func() error {
		_, err := r.pool.Exec(ctx, `
			UPDATE jobs
			SET status = 'pending',
			    run_at = NOW(),
			    locked_at = NULL,
			    locked_by = NULL,
			    last_error = NULL,
			    updated_at = NOW()
			WHERE id = $1`, id)
		return err
	})
}

func (r *JobsRepo) RetryManyFailed(ctx context.Context, limit int) (int64, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	var tag pgconn.CommandTag
	var err error

	err = r.observe("jobs.admin.retry_many_failed", func() error {
		tag, err = r.pool.Exec(ctx, `
			WITH picked AS (
				SELECT id
				FROM jobs
				WHERE status = 'failed'
				ORDER BY updated_at DESC
				LIMIT $1
			)
			UPDATE jobs
			SET status = 'pending',
			    run_at = NOW(),
			    locked_at = NULL,
			    locked_by = NULL,
			    last_error = NULL,
			    updated_at = NOW()
			WHERE id IN (SELECT id FROM picked)`, limit)
		return err
	})

	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}
