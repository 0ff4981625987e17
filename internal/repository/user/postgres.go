package user

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lojavirtual/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

const columns = `id, email, COALESCE(name, ''), password_hash, is_admin, created_at`

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.fetch(ctx, `SELECT `+columns+` FROM users WHERE id = $1`, id)
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetch(ctx, `SELECT `+columns+` FROM users WHERE email = $1`, normalizeEmail(email))
}

func (r *postgresRepo) Upsert(ctx context.Context, user domain.User) (*domain.User, error) {
	return r.fetch(ctx, `
INSERT INTO users (email, name, password_hash, is_admin)
VALUES ($1, NULLIF($2, ''), $3, $4)
ON CONFLICT (email) DO UPDATE SET
    name = EXCLUDED.name,
    password_hash = EXCLUDED.password_hash,
    is_admin = EXCLUDED.is_admin
RETURNING `+columns,
		normalizeEmail(user.Email), user.Name, user.PasswordHash, user.IsAdmin)
}

func (r *postgresRepo) fetch(ctx context.Context, q string, args ...any) (*domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx, q, args...).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
