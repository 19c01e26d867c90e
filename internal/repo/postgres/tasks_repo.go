package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dcarvalho/projectdesk/internal/domain/task"
	"github.com/dcarvalho/projectdesk/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, title, description, status, priority, due_date, start_date, estimated_hours, completed_at, "order", project_id, assignee_id, creator_id, parent_id, created_at, updated_at`

type TasksRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewTasksRepo(pool *pgxpool.Pool, prom *observability.Prom) *TasksRepo {
	return &TasksRepo{pool: pool, prom: prom}
}

func (r *TasksRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func scanTask(row pgx.Row) (task.Task, error) {
	var t task.Task
	var description *string

	err := row.Scan(
		&t.ID,
		&t.Title,
		&description,
		&t.Status,
		&t.Priority,
		&t.DueDate,
		&t.StartDate,
		&t.EstimatedHours,
		&t.CompletedAt,
		&t.Order,
		&t.ProjectID,
		&t.AssigneeID,
		&t.CreatorID,
		&t.ParentID,
		&t.CreatedAt,
		&t.UpdatedAt,
	)

	if err != nil {
		return task.Task{}, err
	}

	if description != nil {
		t.Description = *description
	}

	return t, nil
}

// Create appends the task to its sibling group: order is the max order among
// tasks sharing project_id and parent_id, plus one. The subselect keeps the
// computation and the insert in one statement.
func (r *TasksRepo) Create(ctx context.Context, req task.CreateTaskRequest, creatorID string) (task.Task, error) {
	now := time.Now().UTC()

	status := req.Status
	if status == "" {
		status = task.StatusTodo
	}
	priority := req.Priority
	if priority == "" {
		priority = task.PriorityMedium
	}

	id := uuid.NewString()

	var t task.Task
	var err error

	err = r.observe("tasks.create", func() error {
		t, err = scanTask(r.pool.QueryRow(ctx, `
			INSERT INTO tasks (id, title, description, status, priority, due_date, start_date, estimated_hours, completed_at, "order", project_id, assignee_id, creator_id, parent_id, created_at, updated_at)
			VALUES (
				$1,$2,$3,$4,$5,$6,$7,$8,$9,
				COALESCE((
					SELECT MAX("order") FROM tasks
					WHERE project_id = $10 AND parent_id IS NOT DISTINCT FROM $13
				), 0) + 1,
				$10,$11,$12,$13,$14,$15
			)
			RETURNING `+taskColumns,
			id, req.Title, nullIfEmpty(req.Description), status, priority,
			req.DueDate, req.StartDate, req.EstimatedHours,
			completedAtForNew(status, now),
			req.ProjectID, req.AssigneeID, creatorID, req.ParentID, now, now,
		))
		return err
	})

	if err != nil {
		return task.Task{}, err
	}

	return t, nil
}

// a task created directly in DONE still gets a completion stamp
func completedAtForNew(status task.Status, now time.Time) *time.Time {
	return task.NextCompletedAt(task.StatusTodo, nil, status, now)
}

func (r *TasksRepo) GetByID(ctx context.Context, id string) (task.Task, error) {
	var t task.Task
	var err error

	err = r.observe("tasks.get_by_id", func() error {
		t, err = scanTask(r.pool.QueryRow(ctx,
			`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, err
	}

	return t, nil
}

func (r *TasksRepo) List(ctx context.Context, filter task.ListFilter) ([]task.Task, int, error) {
	var conds []string
	var args []interface{}

	pos := 1

	if filter.ProjectID != nil {
		conds = append(conds, fmt.Sprintf("project_id = $%d", pos))
		args = append(args, *filter.ProjectID)
		pos++
	}
	if filter.Status != nil {
		conds = append(conds, fmt.Sprintf("status = $%d", pos))
		args = append(args, *filter.Status)
		pos++
	}
	if filter.Priority != nil {
		conds = append(conds, fmt.Sprintf("priority = $%d", pos))
		args = append(args, *filter.Priority)
		pos++
	}
	if filter.AssigneeID != nil {
		conds = append(conds, fmt.Sprintf("assignee_id = $%d", pos))
		args = append(args, *filter.AssigneeID)
		pos++
	}
	if filter.Search != nil {
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", pos, pos))
		args = append(args, "%"+*filter.Search+"%")
		pos++
	}

	query := `SELECT ` + taskColumns + `, COUNT(*) OVER() AS total FROM tasks`

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	// display order first, newest as tiebreaker
	query += fmt.Sprintf(` ORDER BY "order" ASC, created_at DESC LIMIT $%d OFFSET $%d`, pos, pos+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	var out []task.Task
	var total int

	err := r.observe("tasks.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var t task.Task
			var description *string

			err = rows.Scan(
				&t.ID, &t.Title, &description, &t.Status, &t.Priority,
				&t.DueDate, &t.StartDate, &t.EstimatedHours, &t.CompletedAt,
				&t.Order, &t.ProjectID, &t.AssigneeID, &t.CreatorID, &t.ParentID,
				&t.CreatedAt, &t.UpdatedAt,
				&total,
			)
			if err != nil {
				return err
			}

			if description != nil {
				t.Description = *description
			}

			out = append(out, t)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, 0, err
	}

	if out == nil {
		out = []task.Task{}
	}

	return out, total, nil
}

// ListMine returns the caller's open tasks, most urgent first.
func (r *TasksRepo) ListMine(ctx context.Context, assigneeID string) ([]task.Task, error) {
	var out []task.Task

	err := r.observe("tasks.list_mine", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT `+taskColumns+` FROM tasks
			WHERE assignee_id = $1 AND status <> 'DONE'
			ORDER BY
				CASE priority
					WHEN 'URGENT' THEN 4
					WHEN 'HIGH' THEN 3
					WHEN 'MEDIUM' THEN 2
					ELSE 1
				END DESC,
				due_date ASC NULLS LAST
		`, assigneeID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var t task.Task
			var description *string

			err = rows.Scan(
				&t.ID, &t.Title, &description, &t.Status, &t.Priority,
				&t.DueDate, &t.StartDate, &t.EstimatedHours, &t.CompletedAt,
				&t.Order, &t.ProjectID, &t.AssigneeID, &t.CreatorID, &t.ParentID,
				&t.CreatedAt, &t.UpdatedAt,
			)
			if err != nil {
				return err
			}

			if description != nil {
				t.Description = *description
			}

			out = append(out, t)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	if out == nil {
		out = []task.Task{}
	}

	return out, nil
}

// Update patches the task. When status changes, completed_at is derived
// inside the same transaction that read the current row, so the
// status/completed_at invariant cannot be broken by a concurrent writer.
func (r *TasksRepo) Update(ctx context.Context, id string, req task.UpdateTaskRequest) (t task.Task, err error) {
	err = r.observe("tasks.update", func() error {
		tx, txErr := r.pool.BeginTx(ctx, pgx.TxOptions{})
		if txErr != nil {
			return txErr
		}

		defer func() { _ = tx.Rollback(ctx) }()

		current, txErr := lockTask(ctx, tx, id)
		if txErr != nil {
			return txErr
		}

		sets, args := taskSets(req, 1)
		pos := len(args) + 1

		if req.Status != nil {
			next := task.NextCompletedAt(current.Status, current.CompletedAt, *req.Status, time.Now().UTC())
			sets = append(sets, fmt.Sprintf("completed_at = $%d", pos))
			args = append(args, next)
			pos++
		}

		if len(sets) == 0 {
			t = current
			return nil
		}

		sets = append(sets, "updated_at = NOW()")

		query := fmt.Sprintf(
			`UPDATE tasks SET %s WHERE id = $%d RETURNING `+taskColumns,
			strings.Join(sets, ", "), pos,
		)
		args = append(args, id)

		t, txErr = scanTask(tx.QueryRow(ctx, query, args...))
		if txErr != nil {
			return txErr
		}

		return tx.Commit(ctx)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = task.ErrNotFound
		}
		return task.Task{}, err
	}

	return t, nil
}

// UpdateStatus is the dedicated status-change path. Same derivation rules.
func (r *TasksRepo) UpdateStatus(ctx context.Context, id string, next task.Status) (t task.Task, err error) {
	err = r.observe("tasks.update_status", func() error {
		tx, txErr := r.pool.BeginTx(ctx, pgx.TxOptions{})
		if txErr != nil {
			return txErr
		}

		defer func() { _ = tx.Rollback(ctx) }()

		current, txErr := lockTask(ctx, tx, id)
		if txErr != nil {
			return txErr
		}

		completedAt := task.NextCompletedAt(current.Status, current.CompletedAt, next, time.Now().UTC())

		t, txErr = scanTask(tx.QueryRow(ctx, `
			UPDATE tasks SET status = $2, completed_at = $3, updated_at = NOW()
			WHERE id = $1
			RETURNING `+taskColumns,
			id, next, completedAt,
		))
		if txErr != nil {
			return txErr
		}

		return tx.Commit(ctx)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = task.ErrNotFound
		}
		return task.Task{}, err
	}

	return t, nil
}

func lockTask(ctx context.Context, tx pgx.Tx, id string) (task.Task, error) {
	return scanTask(tx.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, id))
}

// Reorder applies every (id, order) assignment in one transaction. Any
// missing task aborts the whole batch; a partial reorder would leave the
// sibling ordering ambiguous.
func (r *TasksRepo) Reorder(ctx context.Context, items []task.ReorderItem) error {
	return r.observe("tasks.reorder", func() error {
		tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}

		defer func() { _ = tx.Rollback(ctx) }()

		for _, item := range items {
			tag, err := tx.Exec(ctx,
				`UPDATE tasks SET "order" = $2, updated_at = NOW() WHERE id = $1`,
				item.ID, item.Order,
			)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return task.ErrNotFound
			}
		}

		return tx.Commit(ctx)
	})
}

func (r *TasksRepo) Delete(ctx context.Context, id string) error {
	return r.observe("tasks.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return task.ErrNotFound
		}
		return nil
	})
}

func (r *TasksRepo) CreateComment(ctx context.Context, taskID, authorID, content string) (task.Comment, error) {
	c := task.Comment{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	err := r.observe("tasks.create_comment", func() error {
		var exists bool

		err := r.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM tasks WHERE id = $1)`, taskID).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return task.ErrNotFound
		}

		_, err = r.pool.Exec(ctx,
			`INSERT INTO comments (id, task_id, author_id, content, created_at)
			 VALUES ($1,$2,$3,$4,$5)`,
			c.ID, c.TaskID, c.AuthorID, c.Content, c.CreatedAt,
		)
		return err
	})

	if err != nil {
		return task.Comment{}, err
	}

	return c, nil
}

func taskSets(req task.UpdateTaskRequest, pos int) ([]string, []interface{}) {
	var sets []string
	var args []interface{}

	add := func(col string, v interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, pos))
		args = append(args, v)
		pos++
	}

	if req.Title != nil {
		add("title", *req.Title)
	}
	if req.Description != nil {
		add("description", *req.Description)
	}
	if req.Status != nil {
		add("status", *req.Status)
	}
	if req.Priority != nil {
		add("priority", *req.Priority)
	}
	if req.DueDate != nil {
		add("due_date", *req.DueDate)
	}
	if req.StartDate != nil {
		add("start_date", *req.StartDate)
	}
	if req.EstimatedHours != nil {
		add("estimated_hours", *req.EstimatedHours)
	}
	if req.AssigneeID != nil {
		add("assignee_id", *req.AssigneeID)
	}
	if req.ParentID != nil {
		add("parent_id", *req.ParentID)
	}

	return sets, args
}
