package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dcarvalho/projectdesk/internal/domain/client"
	"github.com/dcarvalho/projectdesk/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const clientColumns = `id, name, email, phone, document, address, city, state, notes, is_active, created_at, updated_at`

type ClientsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewClientsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ClientsRepo {
	return &ClientsRepo{pool: pool, prom: prom}
}

func (r *ClientsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func scanClient(row pgx.Row) (client.Client, error) {
	var c client.Client
	var email, phone, document, address, city, state, notes *string

	err := row.Scan(
		&c.ID, &c.Name, &email, &phone, &document,
		&address, &city, &state, &notes,
		&c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)

	if err != nil {
		return client.Client{}, err
	}

	if email != nil {
		c.Email = *email
	}
	if phone != nil {
		c.Phone = *phone
	}
	if document != nil {
		c.Document = *document
	}
	if address != nil {
		c.Address = *address
	}
	if city != nil {
		c.City = *city
	}
	if state != nil {
		c.State = *state
	}
	if notes != nil {
		c.Notes = *notes
	}

	return c, nil
}

func (r *ClientsRepo) Create(ctx context.Context, req client.CreateClientRequest) (client.Client, error) {
	now := time.Now().UTC()

	c := client.Client{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Document:  req.Document,
		Address:   req.Address,
		City:      req.City,
		State:     req.State,
		Notes:     req.Notes,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := r.observe("clients.create", func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO clients (id, name, email, phone, document, address, city, state, notes, is_active, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			c.ID, c.Name, nullIfEmpty(c.Email), nullIfEmpty(c.Phone), nullIfEmpty(c.Document),
			nullIfEmpty(c.Address), nullIfEmpty(c.City), nullIfEmpty(c.State), nullIfEmpty(c.Notes),
			c.IsActive, c.CreatedAt, c.UpdatedAt,
		)
		return err
	})

	if err != nil {
		if isUniqueViolation(err) {
			return client.Client{}, client.ErrDocumentTaken
		}
		return client.Client{}, err
	}

	return c, nil
}

func (r *ClientsRepo) GetByID(ctx context.Context, id string) (client.Client, error) {
	var c client.Client
	var err error

	err = r.observe("clients.get_by_id", func() error {
		c, err = scanClient(r.pool.QueryRow(ctx,
			`SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return client.Client{}, client.ErrNotFound
		}
		return client.Client{}, err
	}

	return c, nil
}

func (r *ClientsRepo) List(ctx context.Context, filter client.ListFilter) ([]client.Client, int, error) {
	var conds []string
	var args []interface{}

	pos := 1

	if filter.Search != nil {
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d OR document ILIKE $%d)", pos, pos, pos))
		args = append(args, "%"+*filter.Search+"%")
		pos++
	}
	if filter.IsActive != nil {
		conds = append(conds, fmt.Sprintf("is_active = $%d", pos))
		args = append(args, *filter.IsActive)
		pos++
	}

	query := `SELECT ` + clientColumns + `, COUNT(*) OVER() AS total FROM clients`

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += fmt.Sprintf(" ORDER BY name ASC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	var out []client.Client
	var total int

	err := r.observe("clients.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var c client.Client
			var email, phone, document, address, city, state, notes *string

			err = rows.Scan(
				&c.ID, &c.Name, &email, &phone, &document,
				&address, &city, &state, &notes,
				&c.IsActive, &c.CreatedAt, &c.UpdatedAt,
				&total,
			)
			if err != nil {
				return err
			}

			if email != nil {
				c.Email = *email
			}
			if phone != nil {
				c.Phone = *phone
			}
			if document != nil {
				c.Document = *document
			}
			if address != nil {
				c.Address = *address
			}
			if city != nil {
				c.City = *city
			}
			if state != nil {
				c.State = *state
			}
			if notes != nil {
				c.Notes = *notes
			}

			out = append(out, c)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, 0, err
	}

	if out == nil {
		out = []client.Client{}
	}

	return out, total, nil
}

func (r *ClientsRepo) Update(ctx context.Context, id string, req client.UpdateClientRequest) (client.Client, error) {
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
	if req.Email != nil {
		add("email", *req.Email)
	}
	if req.Phone != nil {
		add("phone", *req.Phone)
	}
	if req.Document != nil {
		add("document", *req.Document)
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
	if req.IsActive != nil {
		add("is_active", *req.IsActive)
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	sets = append(sets, "updated_at = NOW()")

	query := fmt.Sprintf(
		`UPDATE clients SET %s WHERE id = $%d RETURNING `+clientColumns,
		strings.Join(sets, ", "), pos,
	)
	args = append(args, id)

	var c client.Client
	var err error

	err = r.observe("clients.update", func() error {
		c, err = scanClient(r.pool.QueryRow(ctx, query, args...))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return client.Client{}, client.ErrNotFound
		}
		if isUniqueViolation(err) {
			return client.Client{}, client.ErrDocumentTaken
		}
		return client.Client{}, err
	}

	return c, nil
}

func (r *ClientsRepo) Delete(ctx context.Context, id string) error {
	return r.observe("clients.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return client.ErrNotFound
		}
		return nil
	})
}
