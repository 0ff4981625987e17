package user

import (
	"context"

	"lojavirtual/internal/domain"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Upsert creates the user or refreshes name, password and admin flag
	// of the user with the same email.
	Upsert(ctx context.Context, user domain.User) (*domain.User, error)
}
