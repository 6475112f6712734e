package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/ErlanBelekov/authkit/internal/apiclient"
	"github.com/ErlanBelekov/authkit/internal/domain"
	"github.com/ErlanBelekov/authkit/internal/metrics"
	"github.com/ErlanBelekov/authkit/internal/storage"
)

const (
	msgLoginFailed   = "Login failed"
	msgRefreshFailed = "Token refresh failed"
)

// Persistence is the durable side of the store. *storage.Storage satisfies it.
type Persistence interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any) error
	Remove(ctx context.Context, key string) error
}

type Options struct {
	Authenticator Authenticator
	Persistence   Persistence
	Logger        *slog.Logger
}

// Store holds the client's authentication state. Mutations are applied under
// a lock that is released during network and storage I/O, so concurrent
// calls of the same operation resolve last-write-wins.
type Store struct {
	auth     Authenticator
	persist  Persistence
	logger   *slog.Logger
	validate *validator.Validate

	mu      sync.Mutex
	state   State
	subs    map[int]func(State)
	nextSub int
}

func NewStore(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		auth:     opts.Authenticator,
		persist:  opts.Persistence,
		logger:   logger.With("component", "auth_store"),
		validate: validator.New(),
		state:    anonymous(),
		subs:     make(map[int]func(State)),
	}
}

type credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// Login exchanges credentials for a session and persists it. Only the
// returned bool is authoritative; on false, Error holds the reason.
func (s *Store) Login(ctx context.Context, email, password string) bool {
	s.update(func(st *State) {
		st.IsLoading = true
		st.Error = ""
	})

	if err := s.validate.Struct(credentials{Email: email, Password: password}); err != nil {
		s.failLogin(ctx, domain.ErrInvalidCredentials)
		return false
	}

	session, err := s.auth.Login(ctx, email, password)
	if err != nil {
		s.failLogin(ctx, err)
		return false
	}
	if session.Token == "" {
		s.failLogin(ctx, domain.ErrTokenInvalid)
		return false
	}

	user := session.User
	s.update(func(st *State) {
		st.User = &user
		st.Token = session.Token
		st.IsLoading = false
		st.Error = ""
	})

	if err := s.persistSession(ctx, session.Token, user); err != nil {
		s.logger.ErrorContext(ctx, "persist session", "error", err)
		s.update(func(st *State) {
			*st = anonymous()
			st.Error = msgLoginFailed
		})
		metrics.AuthTransitionsTotal.WithLabelValues("login", "failure").Inc()
		return false
	}

	s.logger.InfoContext(ctx, "logged in", "user_id", user.ID)
	metrics.AuthTransitionsTotal.WithLabelValues("login", "success").Inc()
	return true
}

func (s *Store) failLogin(ctx context.Context, err error) {
	msg := displayMessage(err, msgLoginFailed)
	s.logger.WarnContext(ctx, "login failed", "error", err)
	s.update(func(st *State) {
		st.IsLoading = false
		st.Error = msg
	})
	metrics.AuthTransitionsTotal.WithLabelValues("login", "failure").Inc()
}

func (s *Store) persistSession(ctx context.Context, token string, user domain.User) error {
	if err := s.persist.SetJSON(ctx, storage.KeyUserToken, token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	if err := s.persist.SetJSON(ctx, storage.KeyUserData, user); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}
	return nil
}

// LoginWithToken moves directly to the authenticated state for a token known
// to be valid and persists the session. Nothing is sent over the network. A
// persist failure is logged and leaves the in-memory session in place.
func (s *Store) LoginWithToken(ctx context.Context, token string, user domain.User) {
	s.update(func(st *State) {
		st.User = &user
		st.Token = token
		st.IsLoading = false
		st.Error = ""
	})
	if err := s.persistSession(ctx, token, user); err != nil {
		s.logger.ErrorContext(ctx, "login with token: persist session", "error", err)
		metrics.AuthTransitionsTotal.WithLabelValues("login_with_token", "persist_failure").Inc()
		return
	}
	metrics.AuthTransitionsTotal.WithLabelValues("login_with_token", "success").Inc()
}

// Logout clears persisted credentials on a best-effort basis and always
// leaves the store anonymous.
func (s *Store) Logout(ctx context.Context) {
	if err := s.persist.Remove(ctx, storage.KeyUserToken); err != nil {
		s.logger.ErrorContext(ctx, "error during logout: remove token", "error", err)
	}
	if err := s.persist.Remove(ctx, storage.KeyUserData); err != nil {
		s.logger.ErrorContext(ctx, "error during logout: remove user", "error", err)
	}
	s.update(func(st *State) {
		*st = anonymous()
	})
	metrics.AuthTransitionsTotal.WithLabelValues("logout", "success").Inc()
}

// RefreshToken replaces the current token. Any failure, including having no
// token, signs the user out.
func (s *Store) RefreshToken(ctx context.Context) error {
	var current string
	s.update(func(st *State) {
		st.IsLoading = true
		current = st.Token
	})

	err := s.refresh(ctx, current)
	if err == nil {
		metrics.AuthTransitionsTotal.WithLabelValues("refresh", "success").Inc()
		return nil
	}

	s.logger.WarnContext(ctx, "token refresh failed, logging out", "error", err)
	msg := displayMessage(err, msgRefreshFailed)
	s.update(func(st *State) {
		st.IsLoading = false
		st.Error = msg
	})
	metrics.AuthTransitionsTotal.WithLabelValues("refresh", "failure").Inc()
	s.Logout(ctx)
	return err
}

func (s *Store) refresh(ctx context.Context, current string) error {
	if current == "" {
		return domain.ErrNoToken
	}
	token, err := s.auth.Refresh(ctx, current)
	if err != nil {
		return err
	}
	if token == "" {
		return domain.ErrTokenInvalid
	}

	s.update(func(st *State) {
		st.Token = token
		st.IsLoading = false
		st.Error = ""
	})
	if err := s.persist.SetJSON(ctx, storage.KeyUserToken, token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	return nil
}

// UpdateUser merges patch into the current user and persists the result. It
// does nothing when no user is signed in.
func (s *Store) UpdateUser(ctx context.Context, patch domain.UserPatch) error {
	var merged *domain.User
	s.update(func(st *State) {
		if st.User == nil {
			return
		}
		u := patch.Apply(*st.User)
		st.User = &u
		merged = &u
	})
	if merged == nil {
		return nil
	}
	if err := s.persist.SetJSON(ctx, storage.KeyUserData, *merged); err != nil {
		s.logger.ErrorContext(ctx, "persist updated user", "error", err)
		return fmt.Errorf("persist user: %w", err)
	}
	return nil
}

func (s *Store) ClearError() {
	s.update(func(st *State) {
		st.Error = ""
	})
}

func (s *Store) SetLoading(loading bool) {
	s.update(func(st *State) {
		st.IsLoading = loading
	})
}

// Rehydrate loads the persisted token and user. Storage failures are
// returned; undecodable values count as absent.
func (s *Store) Rehydrate(ctx context.Context) error {
	var token string
	if _, err := s.persist.GetJSON(ctx, storage.KeyUserToken, &token); err != nil {
		return fmt.Errorf("%w: read token: %w", domain.ErrStorageUnavailable, err)
	}
	var user domain.User
	found, err := s.persist.GetJSON(ctx, storage.KeyUserData, &user)
	if err != nil {
		return fmt.Errorf("%w: read user: %w", domain.ErrStorageUnavailable, err)
	}

	s.update(func(st *State) {
		*st = anonymous()
		st.Token = token
		if found {
			st.User = &user
		}
	})
	s.logger.DebugContext(ctx, "rehydrated auth state", "authenticated", s.IsAuthenticated())
	return nil
}

// Subscribe registers fn to receive every new state. The returned func
// removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *Store) User() *domain.User {
	return s.State().User
}

func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Token
}

func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsAuthenticated
}

func (s *Store) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsLoading
}

func (s *Store) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Error
}

// update applies fn, re-derives IsAuthenticated and notifies subscribers
// outside the lock.
func (s *Store) update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	s.state.normalize()
	snapshot := s.state.clone()
	subs := make([]func(State), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snapshot)
	}
}

func displayMessage(err error, fallback string) string {
	if apiErr, ok := apiclient.AsAPIError(err); ok {
		if msg := apiclient.FormatForDisplay(apiErr); msg != "" {
			return msg
		}
		return fallback
	}
	switch {
	case errors.Is(err, domain.ErrNoToken):
		return "No token to refresh"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "Invalid email or password"
	case err != nil && err.Error() != "":
		return err.Error()
	default:
		return fallback
	}
}
