package kvstore

import (
	"context"
	"fmt"

	"github.com/ErlanBelekov/authkit/internal/domain"
	"github.com/ErlanBelekov/authkit/internal/storage"
)

const fileKeyPrefix = "file_"

// FileRepository stores uploads as JSON documents in the configured key-value
// backend, one entry per file.
type FileRepository struct {
	store *storage.Storage
}

func NewFileRepository(store *storage.Storage) *FileRepository {
	return &FileRepository{store: store}
}

func (r *FileRepository) Save(ctx context.Context, f *domain.File) error {
	if err := r.store.SetJSON(ctx, fileKeyPrefix+f.ID, f); err != nil {
		return fmt.Errorf("save file: %w", err)
	}
	return nil
}

func (r *FileRepository) FindByID(ctx context.Context, id string) (*domain.File, error) {
	var f domain.File
	ok, err := r.store.GetJSON(ctx, fileKeyPrefix+id, &f)
	if err != nil {
		return nil, fmt.Errorf("load file: %w", err)
	}
	if !ok {
		return nil, domain.ErrFileNotFound
	}
	return &f, nil
}
