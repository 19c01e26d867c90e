package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dcarvalho/projectdesk/internal/domain/user"
	"github.com/dcarvalho/projectdesk/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, name, email, password_hash, role, phone, department, avatar, is_active, last_login_at, created_at, updated_at`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	var phone, department, avatar *string

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&phone,
		&department,
		&avatar,
		&u.IsActive,
		&u.LastLoginAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		return user.User{}, err
	}

	if phone != nil {
		u.Phone = *phone
	}
	if department != nil {
		u.Department = *department
	}
	if avatar != nil {
		u.Avatar = *avatar
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User
	var err error

	err = r.observe("users.get_by_email", func() error {
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User
	var err error

	err = r.observe("users.get_by_id", func() error {
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

// IsActive is the fresh account-status lookup the auth middleware runs on
// every request. A missing row maps to user.ErrNotFound, not an error blob.
func (r *UsersRepo) IsActive(ctx context.Context, id string) (bool, error) {
	var active bool

	err := r.observe("users.is_active", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT is_active FROM users WHERE id = $1`, id).Scan(&active)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, user.ErrNotFound
		}
		return false, err
	}

	return active, nil
}

func (r *UsersRepo) Create(ctx context.Context, req user.CreateUserRequest, passwordHash string) (user.User, error) {
	now := time.Now().UTC()

	role := req.Role
	if role == "" {
		role = user.RoleViewer
	}

	u := user.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         role,
		Phone:        req.Phone,
		Department:   req.Department,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := r.observe("users.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users (id, name, email, password_hash, role, phone, department, is_active, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			u.ID, u.Name, u.Email, u.PasswordHash, u.Role, nullIfEmpty(u.Phone), nullIfEmpty(u.Department), u.IsActive, u.CreatedAt, u.UpdatedAt,
		)
		return err
	})

	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) List(ctx context.Context, filter user.ListFilter) ([]user.User, int, error) {
	var conds []string
	var args []interface{}

	pos := 1

	if filter.Search != nil {
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", pos, pos))
		args = append(args, "%"+*filter.Search+"%")
		pos++
	}

	if filter.Role != nil {
		conds = append(conds, fmt.Sprintf("role = $%d", pos))
		args = append(args, *filter.Role)
		pos++
	}

	if filter.IsActive != nil {
		conds = append(conds, fmt.Sprintf("is_active = $%d", pos))
		args = append(args, *filter.IsActive)
		pos++
	}

	query := `SELECT ` + userColumns + `, COUNT(*) OVER() AS total FROM users`

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += fmt.Sprintf(" ORDER BY name ASC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	var out []user.User
	var total int

	err := r.observe("users.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var u user.User
			var phone, department, avatar *string

			err = rows.Scan(
				&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
				&phone, &department, &avatar,
				&u.IsActive, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
				&total,
			)
			if err != nil {
				return err
			}

			if phone != nil {
				u.Phone = *phone
			}
			if department != nil {
				u.Department = *department
			}
			if avatar != nil {
				u.Avatar = *avatar
			}

			out = append(out, u)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, 0, err
	}

	if out == nil {
		out = []user.User{}
	}

	return out, total, nil
}

// UpdateProfile applies the self-service fields only.
func (r *UsersRepo) UpdateProfile(ctx context.Context, id string, req user.UpdateProfileRequest) (user.User, error) {
	sets, args := profileSets(req, 1)

	return r.applyUpdate(ctx, "users.update_profile", id, sets, args)
}

// UpdateAdmin additionally applies email, role and is_active.
func (r *UsersRepo) UpdateAdmin(ctx context.Context, id string, req user.AdminUpdateUserRequest) (user.User, error) {
	sets, args := profileSets(req.UpdateProfileRequest, 1)
	pos := len(args) + 1

	if req.Email != nil {
		sets = append(sets, fmt.Sprintf("email = $%d", pos))
		args = append(args, *req.Email)
		pos++
	}
	if req.Role != nil {
		sets = append(sets, fmt.Sprintf("role = $%d", pos))
		args = append(args, *req.Role)
		pos++
	}
	if req.IsActive != nil {
		sets = append(sets, fmt.Sprintf("is_active = $%d", pos))
		args = append(args, *req.IsActive)
		pos++
	}

	return r.applyUpdate(ctx, "users.update_admin", id, sets, args)
}

func profileSets(req user.UpdateProfileRequest, pos int) ([]string, []interface{}) {
	var sets []string
	var args []interface{}

	if req.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", pos))
		args = append(args, *req.Name)
		pos++
	}
	if req.Phone != nil {
		sets = append(sets, fmt.Sprintf("phone = $%d", pos))
		args = append(args, *req.Phone)
		pos++
	}
	if req.Department != nil {
		sets = append(sets, fmt.Sprintf("department = $%d", pos))
		args = append(args, *req.Department)
		pos++
	}
	if req.Avatar != nil {
		sets = append(sets, fmt.Sprintf("avatar = $%d", pos))
		args = append(args, *req.Avatar)
		pos++
	}

	return sets, args
}

func (r *UsersRepo) applyUpdate(ctx context.Context, op, id string, sets []string, args []interface{}) (user.User, error) {
	if len(sets) == 0 {
		// nothing to change, hand back the current row
		return r.GetByID(ctx, id)
	}

	pos := len(args) + 1
	sets = append(sets, "updated_at = NOW()")

	query := fmt.Sprintf(
		`UPDATE users SET %s WHERE id = $%d RETURNING `+userColumns,
		strings.Join(sets, ", "), pos,
	)
	args = append(args, id)

	var u user.User
	var err error

	err = r.observe(op, func() error {
		u, err = scanUser(r.pool.QueryRow(ctx, query, args...))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	return r.observe("users.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return user.ErrNotFound
		}
		return nil
	})
}

// best effort on login, callers may ignore the error
func (r *UsersRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.observe("users.update_last_login", func() error {
		_, err := r.pool.Exec(ctx,
			`UPDATE users SET last_login_at = $2 WHERE id = $1`, id, at)
		return err
	})
}

func (r *UsersRepo) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	return r.observe("users.update_password", func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return user.ErrNotFound
		}
		return nil
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
