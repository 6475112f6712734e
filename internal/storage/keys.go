package storage

import (
	"context"

	"github.com/ErlanBelekov/authkit/internal/domain"
)

// Key names are persisted on user devices. Renaming one loses existing data.
const (
	KeyUserToken           = "user_token"
	KeyUserData            = "user_data"
	KeyTheme               = "theme"
	KeyLanguage            = "language"
	KeyOnboardingCompleted = "onboarding_completed"
	KeySettings            = "settings"
	KeyCachePrefix         = "cache"
)

// CacheKey returns the key of the cache entry with the given id.
func CacheKey(id string) string {
	return KeyCachePrefix + "_" + id
}

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func (s *Storage) SetUserToken(ctx context.Context, token string) error {
	return s.SetJSON(ctx, KeyUserToken, token)
}

// UserToken returns the persisted bearer token, if any.
func (s *Storage) UserToken(ctx context.Context) (string, bool, error) {
	var token string
	ok, err := s.GetJSON(ctx, KeyUserToken, &token)
	if err != nil || !ok || token == "" {
		return "", false, err
	}
	return token, true, nil
}

func (s *Storage) RemoveUserToken(ctx context.Context) error {
	return s.Remove(ctx, KeyUserToken)
}

func (s *Storage) SetUserData(ctx context.Context, user domain.User) error {
	return s.SetJSON(ctx, KeyUserData, user)
}

func (s *Storage) UserData(ctx context.Context) (*domain.User, error) {
	var user domain.User
	ok, err := s.GetJSON(ctx, KeyUserData, &user)
	if err != nil || !ok {
		return nil, err
	}
	return &user, nil
}

func (s *Storage) RemoveUserData(ctx context.Context) error {
	return s.Remove(ctx, KeyUserData)
}

func (s *Storage) SetTheme(ctx context.Context, theme Theme) error {
	return s.SetJSON(ctx, KeyTheme, theme)
}

func (s *Storage) Theme(ctx context.Context) (Theme, bool, error) {
	var theme Theme
	ok, err := s.GetJSON(ctx, KeyTheme, &theme)
	return theme, ok, err
}

func (s *Storage) SetLanguage(ctx context.Context, language string) error {
	return s.SetJSON(ctx, KeyLanguage, language)
}

func (s *Storage) Language(ctx context.Context) (string, bool, error) {
	var language string
	ok, err := s.GetJSON(ctx, KeyLanguage, &language)
	return language, ok, err
}

func (s *Storage) SetOnboardingCompleted(ctx context.Context, completed bool) error {
	return s.SetJSON(ctx, KeyOnboardingCompleted, completed)
}

func (s *Storage) OnboardingCompleted(ctx context.Context) (bool, error) {
	var completed bool
	_, err := s.GetJSON(ctx, KeyOnboardingCompleted, &completed)
	return completed, err
}

func (s *Storage) SetSettings(ctx context.Context, settings map[string]any) error {
	return s.SetJSON(ctx, KeySettings, settings)
}

func (s *Storage) Settings(ctx context.Context) (map[string]any, error) {
	var settings map[string]any
	if _, err := s.GetJSON(ctx, KeySettings, &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *Storage) SetCache(ctx context.Context, id string, v any) error {
	return s.SetJSON(ctx, CacheKey(id), v)
}

// Cache decodes the cache entry id into dst. Storage failures are treated as
// a cache miss.
func (s *Storage) Cache(ctx context.Context, id string, dst any) bool {
	ok, err := s.GetJSON(ctx, CacheKey(id), dst)
	if err != nil {
		return false
	}
	return ok
}

// RemoveCache deletes the cache entry id. Failures are logged and ignored.
func (s *Storage) RemoveCache(ctx context.Context, id string) {
	_ = s.Remove(ctx, CacheKey(id))
}
