package quota

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/spendlens/spendlens/internal/db"
)

// Sweeper proactively zeroes stale counters at midnight UTC so the
// first message of a new day does not pay for the reset write.
// Check remains correct without it; this is an optimization only.
type Sweeper struct {
	pool   db.Pool
	logger *slog.Logger
	cron   *cron.Cron
}

func NewSweeper(log *slog.Logger, pool db.Pool) *Sweeper {
	if log == nil {
		log = slog.Default()
	}
	return &Sweeper{
		pool:   pool,
		logger: log.With(slog.String("service", "quota_sweeper")),
		cron:   cron.New(cron.WithLocation(time.UTC)),
	}
}

// Start schedules the midnight sweep. Returns after scheduling.
func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc("0 0 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.Sweep(ctx)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep resets counters for every row whose date is behind today.
// Idempotent: running it twice on the same day is a no-op.
func (s *Sweeper) Sweep(ctx context.Context) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE chat_ids
		SET tokens = 0, requests = 0, date_requests = CURRENT_DATE
		WHERE date_requests < CURRENT_DATE;`)
	if err != nil {
		s.logger.Error("quota sweep failed", slog.Any("error", err))
		return
	}
	s.logger.Info("quota sweep done", slog.Int64("rows", tag.RowsAffected()))
}
