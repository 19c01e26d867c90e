package db

import (
	"context"
	"errors"
	"time"

	"github.com/dcarvalho/projectdesk/internal/config"
	"github.com/dcarvalho/projectdesk/internal/domain/user"
	"github.com/dcarvalho/projectdesk/internal/security"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureAdminUser seeds the bootstrap admin account on startup. A no-op when
// the account already exists or no admin credentials are configured.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	var dummy string

	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, cfg.AdminEmail).Scan(&dummy)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	_, err = pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, name, role, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,true,$6,$7)`,
		uuid.NewString(), cfg.AdminEmail, hash, cfg.AdminName, string(user.RoleAdmin), now, now,
	)

	return err
}
