package usecase

import (
	"context"

	"github.com/ErlanBelekov/authkit/internal/domain"
	"github.com/ErlanBelekov/authkit/internal/repository"
)

type UserUsecase struct {
	users repository.UserRepository
}

func NewUserUsecase(users repository.UserRepository) *UserUsecase {
	return &UserUsecase{users: users}
}

func (u *UserUsecase) Me(ctx context.Context, userID string) (*domain.User, error) {
	return u.users.FindByID(ctx, userID)
}

// UpdateProfile applies the profile fields of patch. Email, role and
// timestamps are not user editable and are dropped.
func (u *UserUsecase) UpdateProfile(ctx context.Context, userID string, patch domain.UserPatch) (*domain.User, error) {
	return u.users.Update(ctx, userID, domain.UserPatch{
		FirstName: patch.FirstName,
		LastName:  patch.LastName,
		Avatar:    patch.Avatar,
	})
}
