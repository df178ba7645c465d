// Package history keeps the bounded per-user conversation context.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/spendlens/spendlens/internal/db"
)

// MaxTurns bounds the rolling history; the oldest turn is evicted first.
const MaxTurns = 4

// Turn is one role-tagged message in the conversation history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Service stores rolling conversation context in the context table.
type Service struct {
	pool   db.Pool
	logger *slog.Logger
}

func NewService(log *slog.Logger, pool db.Pool) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		pool:   pool,
		logger: log.With(slog.String("service", "history")),
	}
}

// Read returns the stored turns, oldest first. Unknown users get an
// empty history.
func (s *Service) Read(ctx context.Context, userID int64) ([]Turn, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT context FROM context WHERE user_id = $1 LIMIT 1;`, userID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history %d: %w", userID, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var turns []Turn
	if err := json.Unmarshal(raw, &turns); err != nil {
		return nil, fmt.Errorf("decode history %d: %w", userID, err)
	}
	return turns, nil
}

// Append pushes a turn onto the history, trimming to the last MaxTurns.
func (s *Service) Append(ctx context.Context, userID int64, turn Turn) error {
	turns, err := s.Read(ctx, userID)
	if err != nil {
		return err
	}
	existed := turns != nil

	turns = Trim(append(turns, turn))

	raw, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("encode history %d: %w", userID, err)
	}

	if existed {
		_, err = s.pool.Exec(ctx,
			`UPDATE context SET context = $2 WHERE user_id = $1;`, userID, raw)
	} else {
		// The row may exist with a NULL context; upsert semantics via
		// update-then-insert would race, so probe first.
		var exists bool
		if probeErr := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM context WHERE user_id = $1);`, userID).Scan(&exists); probeErr != nil {
			return fmt.Errorf("probe history %d: %w", userID, probeErr)
		}
		if exists {
			_, err = s.pool.Exec(ctx,
				`UPDATE context SET context = $2 WHERE user_id = $1;`, userID, raw)
		} else {
			_, err = s.pool.Exec(ctx,
				`INSERT INTO context (user_id, context) VALUES ($1, $2);`, userID, raw)
		}
	}
	if err != nil {
		return fmt.Errorf("write history %d: %w", userID, err)
	}
	return nil
}

// Clear resets the history to an empty sequence. The row itself stays.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE context SET context = $2 WHERE user_id = $1;`, userID, []byte("[]"))
	if err != nil {
		return fmt.Errorf("clear history %d: %w", userID, err)
	}
	s.logger.Info("history cleared", slog.Int64("user_id", userID))
	return nil
}

// Trim keeps only the newest MaxTurns entries, preserving order.
func Trim(turns []Turn) []Turn {
	if len(turns) > MaxTurns {
		return turns[len(turns)-MaxTurns:]
	}
	return turns
}
