// Package quota gates daily per-user request and token budgets.
package quota

import (
	"context"
	"log/slog"
	"time"

	"github.com/spendlens/spendlens/internal/config"
	"github.com/spendlens/spendlens/internal/profile"
)

// FieldWriter persists counter resets. Satisfied by *profile.Store.
type FieldWriter interface {
	UpdateField(ctx context.Context, userID int64, field string, value any) error
}

// Manager checks usage counters against the configured tier table.
// It only gates and resets; incrementing after a successful backend
// call is the caller's job.
type Manager struct {
	store     FieldWriter
	tiers     map[string][2]int64
	whitelist map[int64]struct{}
	logger    *slog.Logger
	now       func() time.Time
}

func NewManager(log *slog.Logger, store FieldWriter, cfg config.QuotaConfig) *Manager {
	if log == nil {
		log = slog.Default()
	}
	whitelist := make(map[int64]struct{}, len(cfg.Whitelist))
	for _, id := range cfg.Whitelist {
		whitelist[id] = struct{}{}
	}
	return &Manager{
		store:     store,
		tiers:     cfg.Tiers,
		whitelist: whitelist,
		logger:    log.With(slog.String("service", "quota")),
		now:       time.Now,
	}
}

// Check reports whether the user may spend another request. On a new
// day the counters are reset and persisted immediately, so concurrent
// reads after the first reset observe zero counters. Persistence
// failures deny the request: unbounded usage on storage failure is
// worse than a refused message.
func (m *Manager) Check(ctx context.Context, p profile.Profile) bool {
	if m.isWhitelisted(p) {
		return true
	}

	today := m.today()
	if p.DateRequests.UTC().Format("2006-01-02") != today.Format("2006-01-02") {
		if err := m.reset(ctx, p.UserID, today); err != nil {
			m.logger.Error("quota reset failed",
				slog.Int64("user_id", p.UserID), slog.Any("error", err))
			return false
		}
		return true
	}

	maxRequests, maxTokens := m.limits(p.Tier)
	if p.Requests >= maxRequests || p.Tokens >= maxTokens {
		m.logger.Info("quota exceeded",
			slog.Int64("user_id", p.UserID),
			slog.Int64("requests", p.Requests),
			slog.Int64("tokens", p.Tokens),
			slog.String("tier", p.Tier))
		return false
	}
	return true
}

func (m *Manager) isWhitelisted(p profile.Profile) bool {
	if p.Tier == profile.TierWhitelist {
		return true
	}
	_, ok := m.whitelist[p.UserID]
	return ok
}

func (m *Manager) limits(tier string) (requests, tokens int64) {
	if caps, ok := m.tiers[tier]; ok {
		return caps[0], caps[1]
	}
	if caps, ok := m.tiers[profile.TierDefault]; ok {
		return caps[0], caps[1]
	}
	return 10, 1000
}

func (m *Manager) today() time.Time {
	return m.now().UTC().Truncate(24 * time.Hour)
}

func (m *Manager) reset(ctx context.Context, userID int64, day time.Time) error {
	if err := m.store.UpdateField(ctx, userID, "tokens", int64(0)); err != nil {
		return err
	}
	if err := m.store.UpdateField(ctx, userID, "requests", int64(0)); err != nil {
		return err
	}
	return m.store.UpdateField(ctx, userID, "date_requests", day)
}
