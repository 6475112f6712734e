package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ErlanBelekov/authkit/internal/domain"
	"github.com/ErlanBelekov/authkit/internal/email"
	"github.com/ErlanBelekov/authkit/internal/repository"
)

const defaultJWTTTL = time.Hour

type AuthUsecase struct {
	users   repository.UserRepository
	email   email.Sender
	logger  *slog.Logger
	jwtKey  []byte
	jwtTTL  time.Duration
	appName string
	now     func() time.Time
}

func NewAuthUsecase(users repository.UserRepository, emailSender email.Sender, logger *slog.Logger, jwtKey []byte, jwtTTL time.Duration, appName string) *AuthUsecase {
	if jwtTTL <= 0 {
		jwtTTL = defaultJWTTTL
	}
	return &AuthUsecase{
		users:   users,
		email:   emailSender,
		logger:  logger.With("component", "auth_usecase"),
		jwtKey:  jwtKey,
		jwtTTL:  jwtTTL,
		appName: appName,
		now:     time.Now,
	}
}

// Login finds or creates the account for email and issues a signed JWT.
// Passwords are not checked: this server only backs development and tests.
func (u *AuthUsecase) Login(ctx context.Context, emailAddr, _ string) (domain.Session, error) {
	user, created, err := u.users.FindOrCreate(ctx, emailAddr)
	if err != nil {
		return domain.Session{}, fmt.Errorf("find or create user: %w", err)
	}

	if created {
		subject, body := email.Welcome(u.appName, user.Email)
		if err := u.email.Send(ctx, user.Email, subject, body); err != nil {
			// A failed welcome email does not block sign-in.
			u.logger.ErrorContext(ctx, "send welcome email", "user_id", user.ID, "error", err)
		}
	}

	token, err := u.sign(user)
	if err != nil {
		return domain.Session{}, err
	}
	return domain.Session{User: *user, Token: token}, nil
}

// Refresh issues a new JWT for an already authenticated user.
func (u *AuthUsecase) Refresh(ctx context.Context, userID string) (string, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("find user: %w", err)
	}
	return u.sign(user)
}

func (u *AuthUsecase) sign(user *domain.User) (string, error) {
	now := u.now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(u.jwtTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(u.jwtKey)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}
