package postgres

import (
	"context"
	"encoding/json"

	"github.com/dcarvalho/projectdesk/internal/domain/activity"
	"github.com/dcarvalho/projectdesk/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ActivityRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewActivityRepo(pool *pgxpool.Pool, prom *observability.Prom) *ActivityRepo {
	return &ActivityRepo{pool: pool, prom: prom}
}

func (r *ActivityRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *ActivityRepo) Record(ctx context.Context, e activity.Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	var details []byte
	if e.Details != nil {
		b, err := json.Marshal(e.Details)
		if err != nil {
			return err
		}
		details = b
	}

	return r.observe("activity.record", func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO activity_log (id, action, entity, entity_id, user_id, project_id, details, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())`,
			e.ID, e.Action, e.Entity, e.EntityID, e.UserID, e.ProjectID, details,
		)
		return err
	})
}

// Recent returns the newest entries, optionally scoped to one project.
func (r *ActivityRepo) Recent(ctx context.Context, projectID *string, limit int) ([]activity.Entry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `
		SELECT id, action, entity, entity_id, user_id, project_id, details, created_at
		FROM activity_log`
	args := []interface{}{limit}

	if projectID != nil {
		query += ` WHERE project_id = $2`
		args = append(args, *projectID)
	}
	query += ` ORDER BY created_at DESC LIMIT $1`

	var out []activity.Entry

	err := r.observe("activity.recent", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var e activity.Entry
			var details []byte

			err = rows.Scan(&e.ID, &e.Action, &e.Entity, &e.EntityID, &e.UserID, &e.ProjectID, &details, &e.CreatedAt)
			if err != nil {
				return err
			}

			if len(details) > 0 {
				if err := json.Unmarshal(details, &e.Details); err != nil {
					return err
				}
			}

			out = append(out, e)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	if out == nil {
		out = []activity.Entry{}
	}

	return out, nil
}
