package postgres

import (
	"context"

	"github.com/dcarvalho/projectdesk/internal/domain/activity"
	"github.com/dcarvalho/projectdesk/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewNotificationsRepo(pool *pgxpool.Pool, prom *observability.Prom) *NotificationsRepo {
	return &NotificationsRepo{pool: pool, prom: prom}
}

func (r *NotificationsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *NotificationsRepo) Create(ctx context.Context, n activity.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}

	return r.observe("notifications.create", func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO notifications (id, user_id, title, message, type, link, read, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,false,NOW())
			ON CONFLICT (id) DO NOTHING`,
			n.ID, n.UserID, n.Title, n.Message, n.Type, nullIfEmpty(n.Link),
		)
		return err
	})
}

func (r *NotificationsRepo) ListForUser(ctx context.Context, userID string, limit int) ([]activity.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var out []activity.Notification

	err := r.observe("notifications.list_for_user", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT id, user_id, title, message, type, link, read, created_at
			FROM notifications
			WHERE user_id = $1
			ORDER BY created_at DESC
			LIMIT $2`, userID, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var n activity.Notification
			var link *string

			err = rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &link, &n.Read, &n.CreatedAt)
			if err != nil {
				return err
			}

			if link != nil {
				n.Link = *link
			}

			out = append(out, n)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	if out == nil {
		out = []activity.Notification{}
	}

	return out, nil
}

func (r *NotificationsRepo) MarkRead(ctx context.Context, userID, id string) error {
	return r.observe("notifications.mark_read", func() error {
		_, err := r.pool.Exec(ctx,
			`UPDATE notifications SET read = true WHERE id = $1 AND user_id = $2`, id, userID)
		return err
	})
}
