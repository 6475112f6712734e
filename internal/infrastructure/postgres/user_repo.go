package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ErlanBelekov/authkit/internal/domain"
)

const userColumns = `id, email, first_name, last_name, avatar, role, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Migrate creates the users table if it does not exist.
func (r *UserRepository) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id         UUID        PRIMARY KEY DEFAULT gen_random_uuid(),
			email      TEXT        NOT NULL UNIQUE,
			first_name TEXT        NOT NULL DEFAULT '',
			last_name  TEXT        NOT NULL DEFAULT '',
			avatar     TEXT,
			role       TEXT        NOT NULL DEFAULT 'user',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("migrate users: %w", err)
	}
	return nil
}

// FindOrCreate inserts the user if the email is new. xmax = 0 marks a row
// written by this statement's insert rather than the conflict update.
func (r *UserRepository) FindOrCreate(ctx context.Context, email string) (*domain.User, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email) VALUES ($1)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING `+userColumns+`, (xmax = 0) AS created`,
		email,
	)

	var u domain.User
	var created bool
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Avatar, &u.Role, &u.CreatedAt, &u.UpdatedAt, &created)
	if err != nil {
		return nil, false, fmt.Errorf("find or create user: %w", err)
	}
	return &u, created, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// Update applies the non-nil fields of patch. COALESCE keeps the stored value
// for every NULL parameter.
func (r *UserRepository) Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	var role *string
	if patch.Role != nil {
		s := string(*patch.Role)
		role = &s
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE users SET
			email      = COALESCE($2, email),
			first_name = COALESCE($3, first_name),
			last_name  = COALESCE($4, last_name),
			avatar     = COALESCE($5, avatar),
			role       = COALESCE($6, role),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		id, patch.Email, patch.FirstName, patch.LastName, patch.Avatar, role,
	)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Avatar, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
