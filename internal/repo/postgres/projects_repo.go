package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dcarvalho/projectdesk/internal/domain/project"
	"github.com/dcarvalho/projectdesk/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const projectColumns = `id, name, description, code, status, start_date, end_date, estimated_cost, address, city, state, notes, client_id, manager_id, created_at, updated_at`

type ProjectsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewProjectsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ProjectsRepo {
	return &ProjectsRepo{pool: pool, prom: prom}
}

func (r *ProjectsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func scanProject(row pgx.Row) (project.Project, error) {
	var p project.Project
	var description, address, city, state, notes *string

	err := row.Scan(
		&p.ID, &p.Name, &description, &p.Code, &p.Status,
		&p.StartDate, &p.EndDate, &p.EstimatedCost,
		&address, &city, &state, &notes,
		&p.ClientID, &p.ManagerID, &p.CreatedAt, &p.UpdatedAt,
	)

	if err != nil {
		return project.Project{}, err
	}

	if description != nil {
		p.Description = *description
	}
	if address != nil {
		p.Address = *address
	}
	if city != nil {
		p.City = *city
	}
	if state != nil {
		p.State = *state
	}
	if notes != nil {
		p.Notes = *notes
	}

	return p, nil
}

func (r *ProjectsRepo) Create(ctx context.Context, req project.CreateProjectRequest) (project.Project, error) {
	now := time.Now().UTC()

	status := req.Status
	if status == "" {
		status = project.StatusPlanning
	}

	p := project.Project{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Description:   req.Description,
		Code:          req.Code,
		Status:        status,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		EstimatedCost: req.EstimatedCost,
		Address:       req.Address,
		City:          req.City,
		State:         req.State,
		Notes:         req.Notes,
		ClientID:      req.ClientID,
		ManagerID:     req.ManagerID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := r.observe("projects.create", func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO projects (id, name, description, code, status, start_date, end_date, estimated_cost, address, city, state, notes, client_id, manager_id, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
			p.ID, p.Name, nullIfEmpty(p.Description), p.Code, p.Status,
			p.StartDate, p.EndDate, p.EstimatedCost,
			nullIfEmpty(p.Address), nullIfEmpty(p.City), nullIfEmpty(p.State), nullIfEmpty(p.Notes),
			p.ClientID, p.ManagerID, p.CreatedAt, p.UpdatedAt,
		)
		return err
	})

	if err != nil {
		if isUniqueViolation(err) {
			return project.Project{}, project.ErrCodeTaken
		}
		return project.Project{}, err
	}

	return p, nil
}

func (r *ProjectsRepo) GetByID(ctx context.Context, id string) (project.Project, error) {
	var p project.Project
	var err error

	err = r.observe("projects.get_by_id", func() error {
		p, err = scanProject(r.pool.QueryRow(ctx,
			`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return project.Project{}, project.ErrNotFound
		}
		return project.Project{}, err
	}

	return p, nil
}

func (r *ProjectsRepo) List(ctx context.Context, filter project.ListFilter) ([]project.Project, int, error) {
	var conds []string
	var args []interface{}

	pos := 1

	if filter.Search != nil {
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d)", pos, pos))
		args = append(args, "%"+*filter.Search+"%")
		pos++
	}
	if filter.Status != nil {
		conds = append(conds, fmt.Sprintf("status = $%d", pos))
		args = append(args, *filter.Status)
		pos++
	}
	if filter.ClientID != nil {
		conds = append(conds, fmt.Sprintf("client_id = $%d", pos))
		args = append(args, *filter.ClientID)
		pos++
	}
	if filter.ManagerID != nil {
		conds = append(conds, fmt.Sprintf("manager_id = $%d", pos))
		args = append(args, *filter.ManagerID)
		pos++
	}

	query := `SELECT ` + projectColumns + `, COUNT(*) OVER() AS total FROM projects`

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += fmt.Sprintf(" ORDER BY updated_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	var out []project.Project
	var total int

	err := r.observe("projects.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var p project.Project
			var description, address, city, state, notes *string

			err = rows.Scan(
				&p.ID, &p.Name, &description, &p.Code, &p.Status,
				&p.StartDate, &p.EndDate, &p.EstimatedCost,
				&address, &city, &state, &notes,
				&p.ClientID, &p.ManagerID, &p.CreatedAt, &p.UpdatedAt,
				&total,
			)
			if err != nil {
				return err
			}

			if description != nil {
				p.Description = *description
			}
			if address != nil {
				p.Address = *address
			}
			if city != nil {
				p.City = *city
			}
			if state != nil {
				p.State = *state
			}
			if notes != nil {
				p.Notes = *notes
			}

			out = append(out, p)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, 0, err
	}

	if out == nil {
		out = []project.Project{}
	}

	return out, total, nil
}

func (r *ProjectsRepo) Update(ctx context.Context, id string, req project.UpdateProjectRequest) (project.Project, error) {
	var sets []string
	var args []interface{}

	pos := 1

	add := func(col string, v interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, pos))
		args = append(args, v)
		pos++
	}

	if req.Name != nil {
		add("name", *req.Name)
	}
	if req.Description != nil {
		add("description", *req.Description)
	}
	if req.Code != nil {
		add("code", *req.Code)
	}
	if req.Status != nil {
		add("status", *req.Status)
	}
	if req.StartDate != nil {
		add("start_date", *req.StartDate)
	}
	if req.EndDate != nil {
		add("end_date", *req.EndDate)
	}
	if req.EstimatedCost != nil {
		add("estimated_cost", *req.EstimatedCost)
	}
	if req.Address != nil {
		add("address", *req.Address)
	}
	if req.City != nil {
		add("city", *req.City)
	}
	if req.State != nil {
		add("state", *req.State)
	}
	if req.Notes != nil {
		add("notes", *req.Notes)
	}
	if req.ClientID != nil {
		add("client_id", *req.ClientID)
	}
	if req.ManagerID != nil {
		add("manager_id", *req.ManagerID)
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	sets = append(sets, "updated_at = NOW()")

	query := fmt.Sprintf(
		`UPDATE projects SET %s WHERE id = $%d RETURNING `+projectColumns,
		strings.Join(sets, ", "), pos,
	)
	args = append(args, id)

	var p project.Project
	var err error

	err = r.observe("projects.update", func() error {
		p, err = scanProject(r.pool.QueryRow(ctx, query, args...))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return project.Project{}, project.ErrNotFound
		}
		if isUniqueViolation(err) {
			return project.Project{}, project.ErrCodeTaken
		}
		return project.Project{}, err
	}

	return p, nil
}

func (r *ProjectsRepo) Delete(ctx context.Context, id string) error {
	return r.observe("projects.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return project.ErrNotFound
		}
		return nil
	})
}
