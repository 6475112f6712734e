package repository

import (
	"context"

	"github.com/ErlanBelekov/authkit/internal/domain"
)

type FileRepository interface {
	Save(ctx context.Context, f *domain.File) error
	FindByID(ctx context.Context, id string) (*domain.File, error)
}
