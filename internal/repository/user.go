package repository

import (
	"context"

	"github.com/ErlanBelekov/authkit/internal/domain"
)

type UserRepository interface {
	// FindOrCreate reports whether the user was created by this call.
	FindOrCreate(ctx context.Context, email string) (*domain.User, bool, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error)
}
