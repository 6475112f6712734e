package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/ErlanBelekov/authkit/internal/domain"
	"github.com/ErlanBelekov/authkit/internal/infrastructure/kvstore"
	"github.com/ErlanBelekov/authkit/internal/storage"
	"github.com/ErlanBelekov/authkit/internal/usecase"
)

func TestUpdateProfile_DropsProtectedFields(t *testing.T) {
	var got domain.UserPatch
	repo := &fakeUserRepo{
		update: func(_ context.Context, _ string, patch domain.UserPatch) (*domain.User, error) {
			got = patch
			return testUser, nil
		},
	}

	name, mail := "Jane", "evil@example.com"
	role := domain.RoleAdmin
	_, err := usecase.NewUserUsecase(repo).UpdateProfile(context.Background(), testUser.ID,
		domain.UserPatch{FirstName: &name, Email: &mail, Role: &role})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.FirstName == nil || *got.FirstName != "Jane" {
		t.Errorf("first name not forwarded: %+v", got)
	}
	if got.Email != nil || got.Role != nil {
		t.Errorf("protected fields forwarded: %+v", got)
	}
}

func newFileUsecase() *usecase.FileUsecase {
	store := storage.New(storage.NewMemory(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	return usecase.NewFileUsecase(kvstore.NewFileRepository(store))
}

func TestFileUsecase_UploadThenGet(t *testing.T) {
	uc := newFileUsecase()
	ctx := context.Background()

	f, err := uc.Upload(ctx, "u1", "a.txt", "", []byte("hello"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if f.Size != 5 || f.ContentType != "application/octet-stream" || f.ID == "" {
		t.Errorf("file = %+v", f)
	}

	got, err := uc.Get(ctx, "u1", f.ID)
	if err != nil || !bytes.Equal(got.Data, []byte("hello")) {
		t.Errorf("Get = %+v, %v", got, err)
	}
}

func TestFileUsecase_OtherOwner_NotFound(t *testing.T) {
	uc := newFileUsecase()
	ctx := context.Background()
	f, _ := uc.Upload(ctx, "u1", "a.txt", "text/plain", []byte("x"))

	if _, err := uc.Get(ctx, "u2", f.ID); !errors.Is(err, domain.ErrFileNotFound) {
		t.Errorf("err = %v, want ErrFileNotFound", err)
	}
}

func TestFileUsecase_TooLarge(t *testing.T) {
	_, err := newFileUsecase().Upload(context.Background(), "u1", "big", "", make([]byte, usecase.MaxUploadBytes+1))
	if !errors.Is(err, usecase.ErrFileTooLarge) {
		t.Errorf("err = %v, want ErrFileTooLarge", err)
	}
}
