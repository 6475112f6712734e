package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/robfig/cron/v3"
)

// Refresher renews the store's token on a cron schedule once it is close to
// expiry.
type Refresher struct {
	store  *Store
	logger *slog.Logger
	spec   string
	leeway time.Duration
	now    func() time.Time
}

// NewRefresher validates spec (standard cron or a descriptor such as
// "@every 10m").
func NewRefresher(store *Store, logger *slog.Logger, spec string, leeway time.Duration) (*Refresher, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse refresh schedule %q: %w", spec, err)
	}
	return &Refresher{
		store:  store,
		logger: logger.With("component", "refresher"),
		spec:   spec,
		leeway: leeway,
		now:    time.Now,
	}, nil
}

// Start blocks until ctx is done.
func (r *Refresher) Start(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(r.spec, func() { r.Tick(ctx) }); err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}
	c.Start()
	r.logger.Info("refresher started", "schedule", r.spec, "leeway", r.leeway)

	<-ctx.Done()
	<-c.Stop().Done()
	r.logger.Info("refresher shut down")
	return nil
}

// Tick refreshes the token if it is due and reports whether a refresh was
// attempted.
func (r *Refresher) Tick(ctx context.Context) bool {
	if !r.store.IsAuthenticated() {
		return false
	}
	token := r.store.Token()
	if !r.due(token) {
		return false
	}

	if err := r.store.RefreshToken(ctx); err != nil {
		r.logger.ErrorContext(ctx, "scheduled refresh", "error", err)
	} else {
		r.logger.InfoContext(ctx, "token refreshed")
	}
	return true
}

// due reports whether token expires within the leeway. Tokens that are not
// JWTs carry no expiry and are always due.
func (r *Refresher) due(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return true
	}
	if exp == nil {
		return false
	}
	return exp.Time.Sub(r.now()) <= r.leeway
}
