package postgres

import (
	"context"

	"github.com/dcarvalho/projectdesk/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DashboardStats is the aggregate snapshot behind /dashboard/stats.
type DashboardStats struct {
	TotalProjects    int `json:"totalProjects"`
	ActiveProjects   int `json:"activeProjects"`
	TotalTasks       int `json:"totalTasks"`
	CompletedTasks   int `json:"completedTasks"`
	OverdueTasks     int `json:"overdueTasks"`
	TotalClients     int `json:"totalClients"`
	ActiveUsers      int `json:"activeUsers"`
	TasksDueThisWeek int `json:"tasksDueThisWeek"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type DashboardRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewDashboardRepo(pool *pgxpool.Pool, prom *observability.Prom) *DashboardRepo {
	return &DashboardRepo{pool: pool, prom: prom}
}

func (r *DashboardRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *DashboardRepo) Stats(ctx context.Context) (DashboardStats, error) {
	var s DashboardStats

	err := r.observe("dashboard.stats", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT
				(SELECT COUNT(*) FROM projects),
				(SELECT COUNT(*) FROM projects WHERE status = 'IN_PROGRESS'),
				(SELECT COUNT(*) FROM tasks),
				(SELECT COUNT(*) FROM tasks WHERE status = 'DONE'),
				(SELECT COUNT(*) FROM tasks WHERE status <> 'DONE' AND due_date IS NOT NULL AND due_date < NOW()),
				(SELECT COUNT(*) FROM clients WHERE is_active),
				(SELECT COUNT(*) FROM users WHERE is_active),
				(SELECT COUNT(*) FROM tasks WHERE status <> 'DONE' AND due_date >= NOW() AND due_date < NOW() + INTERVAL '7 days')
		`).Scan(
			&s.TotalProjects, &s.ActiveProjects,
			&s.TotalTasks, &s.CompletedTasks, &s.OverdueTasks,
			&s.TotalClients, &s.ActiveUsers, &s.TasksDueThisWeek,
		)
	})

	if err != nil {
		return DashboardStats{}, err
	}

	return s, nil
}

func (r *DashboardRepo) ProjectsByStatus(ctx context.Context) ([]StatusCount, error) {
	var out []StatusCount

	err := r.observe("dashboard.projects_by_status", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT status, COUNT(*)
			FROM projects
			GROUP BY status
			ORDER BY COUNT(*) DESC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var sc StatusCount
			if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
				return err
			}
			out = append(out, sc)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	if out == nil {
		out = []StatusCount{}
	}

	return out, nil
}
