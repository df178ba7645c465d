package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendlens/spendlens/internal/config"
	"github.com/spendlens/spendlens/internal/profile"
)

type fakeWriter struct {
	fields map[string]any
	err    error
}

func (f *fakeWriter) UpdateField(_ context.Context, _ int64, field string, value any) error {
	if f.err != nil {
		return f.err
	}
	if f.fields == nil {
		f.fields = make(map[string]any)
	}
	f.fields[field] = value
	return nil
}

func testConfig() config.QuotaConfig {
	return config.QuotaConfig{
		Tiers: map[string][2]int64{
			profile.TierDefault:   {10, 1000},
			profile.TierX5:        {50, 5000},
			profile.TierWhitelist: {9999, 999999},
		},
		Whitelist: []int64{42},
	}
}

func newTestManager(w FieldWriter) *Manager {
	m := NewManager(nil, w, testConfig())
	m.now = func() time.Time {
		return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	}
	return m
}

func TestCheckWithinLimits(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	m := newTestManager(w)
	p := profile.Profile{
		UserID:       1,
		Tier:         profile.TierDefault,
		Tokens:       500,
		Requests:     5,
		DateRequests: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}
	assert.True(t, m.Check(context.Background(), p))
	assert.Empty(t, w.fields, "no mutation expected on a plain pass")
}

func TestCheckDeniesOverEitherCap(t *testing.T) {
	t.Parallel()

	m := newTestManager(&fakeWriter{})
	base := profile.Profile{
		UserID:       1,
		Tier:         profile.TierDefault,
		DateRequests: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}

	t.Run("requests cap", func(t *testing.T) {
		t.Parallel()
		p := base
		p.Requests = 10
		assert.False(t, m.Check(context.Background(), p))
	})

	t.Run("tokens cap", func(t *testing.T) {
		t.Parallel()
		p := base
		p.Tokens = 1000
		assert.False(t, m.Check(context.Background(), p))
	})
}

func TestCheckResetsOnNewDay(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	m := newTestManager(w)
	p := profile.Profile{
		UserID:       1,
		Tier:         profile.TierDefault,
		Tokens:       99999,
		Requests:     99999,
		DateRequests: time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC),
	}

	require.True(t, m.Check(context.Background(), p))
	assert.Equal(t, int64(0), w.fields["tokens"])
	assert.Equal(t, int64(0), w.fields["requests"])
	day, ok := w.fields["date_requests"].(time.Time)
	require.True(t, ok)
	assert.Equal(t, "2026-09-01", day.Format("2006-01-02"))
}

func TestCheckFailsClosedOnStorageError(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{err: errors.New("connection refused")}
	m := newTestManager(w)
	p := profile.Profile{
		UserID:       1,
		Tier:         profile.TierDefault,
		DateRequests: time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC),
	}
	assert.False(t, m.Check(context.Background(), p))
}

func TestWhitelistBypassesEverything(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	m := newTestManager(w)

	t.Run("tier whitelist", func(t *testing.T) {
		p := profile.Profile{
			UserID:       1,
			Tier:         profile.TierWhitelist,
			Tokens:       999999,
			Requests:     999999,
			DateRequests: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		}
		assert.True(t, m.Check(context.Background(), p))
	})

	t.Run("id whitelist", func(t *testing.T) {
		p := profile.Profile{
			UserID:       42,
			Tier:         profile.TierDefault,
			Tokens:       999999,
			DateRequests: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		}
		assert.True(t, m.Check(context.Background(), p))
	})

	assert.Empty(t, w.fields, "whitelist path must not mutate counters")
}
