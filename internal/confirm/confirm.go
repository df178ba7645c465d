// Package confirm drives the accept / edit / discard decision over an
// extracted receipt draft. Nothing is written to storage until the
// user accepts; a failed write keeps the draft so accepting again
// retries it.
package confirm

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spendlens/spendlens/internal/receipt"
	"github.com/spendlens/spendlens/internal/session"
)

// ErrNothingPending is returned when a decision arrives with no draft
// awaiting it, e.g. a stale inline button pressed twice.
var ErrNothingPending = errors.New("confirm: no draft pending")

// Saver persists the rows of one accepted receipt.
type Saver interface {
	Save(ctx context.Context, rows []receipt.Record) error
}

type Workflow struct {
	sessions *session.Store
	saver    Saver
	logger   *slog.Logger
}

func NewWorkflow(sessions *session.Store, saver Saver, logger *slog.Logger) *Workflow {
	return &Workflow{
		sessions: sessions,
		saver:    saver,
		logger:   logger.With(slog.String("service", "confirm")),
	}
}

// Accept commits the pending draft and returns how many rows were
// written. The draft survives a storage failure.
func (w *Workflow) Accept(ctx context.Context, userID int64) (int, error) {
	draft, ok := w.sessions.Draft(userID)
	if !ok {
		return 0, ErrNothingPending
	}

	rows := draft.Records(userID)
	if err := w.saver.Save(ctx, rows); err != nil {
		w.logger.Error("committing draft", slog.Int64("user_id", userID), slog.Any("error", err))
		return 0, err
	}

	w.sessions.ClearDraft(userID)
	return len(rows), nil
}

// Cancel discards the pending draft. Discarding with nothing pending
// is not an error; the caller just tells the user so.
func (w *Workflow) Cancel(userID int64) bool {
	return w.sessions.ClearDraft(userID)
}

// Edit keeps the draft pending and switches the user into manual
// re-entry, so their next message replaces the extraction.
func (w *Workflow) Edit(userID int64) error {
	if _, ok := w.sessions.Draft(userID); !ok {
		return ErrNothingPending
	}
	w.sessions.SetState(userID, session.AwaitingReceiptEdit)
	return nil
}
