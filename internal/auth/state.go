package auth

import "github.com/ErlanBelekov/authkit/internal/domain"

// State is a snapshot of the store. Only User and Token are persisted;
// IsLoading and Error are transient.
type State struct {
	User            *domain.User
	Token           string
	IsAuthenticated bool
	IsLoading       bool
	// Error is the last human-readable failure, empty when none.
	Error string
}

func (s State) clone() State {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// normalize derives IsAuthenticated from User and Token.
func (s *State) normalize() {
	s.IsAuthenticated = s.User != nil && s.Token != ""
}

func anonymous() State {
	return State{}
}
