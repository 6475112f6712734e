package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ErlanBelekov/authkit/internal/domain"
	"github.com/ErlanBelekov/authkit/internal/repository"
)

const MaxUploadBytes = 10 << 20

var ErrFileTooLarge = fmt.Errorf("file exceeds %d bytes", MaxUploadBytes)

type FileUsecase struct {
	files repository.FileRepository
}

func NewFileUsecase(files repository.FileRepository) *FileUsecase {
	return &FileUsecase{files: files}
}

func (u *FileUsecase) Upload(ctx context.Context, ownerID, name, contentType string, data []byte) (*domain.File, error) {
	if len(data) > MaxUploadBytes {
		return nil, ErrFileTooLarge
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	f := &domain.File{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
		CreatedAt:   time.Now().UTC(),
	}
	if err := u.files.Save(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Get returns the file if it belongs to ownerID. Files of other users are
// reported as not found.
func (u *FileUsecase) Get(ctx context.Context, ownerID, id string) (*domain.File, error) {
	f, err := u.files.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.OwnerID != ownerID {
		return nil, domain.ErrFileNotFound
	}
	return f, nil
}
