package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/ErlanBelekov/authkit/internal/apiclient"
	"github.com/ErlanBelekov/authkit/internal/domain"
)

// Authenticator performs the credential exchange with the backend.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (domain.Session, error)
	Refresh(ctx context.Context, token string) (string, error)
}

// MockAuthenticator accepts any credentials after a fixed delay. It stands in
// for a backend during UI and local development.
type MockAuthenticator struct {
	LoginDelay   time.Duration
	RefreshDelay time.Duration
	Now          func() time.Time
}

func NewMockAuthenticator() *MockAuthenticator {
	return &MockAuthenticator{
		LoginDelay:   time.Second,
		RefreshDelay: 500 * time.Millisecond,
		Now:          time.Now,
	}
}

func (m *MockAuthenticator) Login(ctx context.Context, email, _ string) (domain.Session, error) {
	if err := sleep(ctx, m.LoginDelay); err != nil {
		return domain.Session{}, err
	}
	now := m.now()
	return domain.Session{
		User: domain.User{
			ID:        "1",
			Email:     email,
			FirstName: "John",
			LastName:  "Doe",
			Role:      domain.RoleUser,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Token: "mock-jwt-token-" + strconv.FormatInt(now.UnixMilli(), 10),
	}, nil
}

func (m *MockAuthenticator) Refresh(ctx context.Context, _ string) (string, error) {
	if err := sleep(ctx, m.RefreshDelay); err != nil {
		return "", err
	}
	return "mock-jwt-token-refreshed-" + strconv.FormatInt(m.now().UnixMilli(), 10), nil
}

func (m *MockAuthenticator) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// HTTPAuthenticator talks to the auth API through the shared client.
type HTTPAuthenticator struct {
	client *apiclient.Client
}

func NewHTTPAuthenticator(client *apiclient.Client) *HTTPAuthenticator {
	return &HTTPAuthenticator{client: client}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshResponse struct {
	Token string `json:"token"`
}

func (a *HTTPAuthenticator) Login(ctx context.Context, email, password string) (domain.Session, error) {
	var session domain.Session
	if err := a.client.Post(ctx, "/auth/login", loginRequest{Email: email, Password: password}, &session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// Refresh sends token as the bearer. A persisted token, when present, is
// attached by the client instead.
func (a *HTTPAuthenticator) Refresh(ctx context.Context, token string) (string, error) {
	var out refreshResponse
	err := a.client.Post(ctx, "/auth/refresh", nil, &out, apiclient.WithHeader("Authorization", "Bearer "+token))
	if err != nil {
		return "", err
	}
	return out.Token, nil
}
