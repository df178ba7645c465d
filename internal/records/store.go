// Package records persists confirmed receipt rows and builds spending
// summaries over them. Rows are append-only; corrections happen by
// re-sending a receipt, never by updating rows in place.
package records

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spendlens/spendlens/internal/db"
	"github.com/spendlens/spendlens/internal/receipt"
)

const insertSQL = `INSERT INTO check_items
	(user_id, date, time, store, check_id, category, product, quantity, price, total, currency)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`

const selectSQL = `SELECT user_id,
	COALESCE(date, ''), COALESCE(time, ''), COALESCE(store, ''),
	COALESCE(check_id, ''), COALESCE(category, ''), COALESCE(product, ''),
	COALESCE(quantity, 0), COALESCE(price, 0), COALESCE(total, 0), COALESCE(currency, '')
	FROM check_items WHERE user_id = $1;`

type Store struct {
	pool   db.Pool
	logger *slog.Logger
}

func NewStore(pool db.Pool, logger *slog.Logger) *Store {
	return &Store{pool: pool, logger: logger.With(slog.String("service", "records"))}
}

// Save appends all rows of one confirmed receipt. It stops on the
// first failed row so a retry re-sends the whole receipt.
func (s *Store) Save(ctx context.Context, rows []receipt.Record) error {
	if len(rows) == 0 {
		return nil
	}
	for i, r := range rows {
		_, err := s.pool.Exec(ctx, insertSQL,
			r.UserID, r.Date, r.Time, r.Store, r.CheckID,
			r.Category, r.Product, r.Quantity, r.Price, r.Total, r.Currency)
		if err != nil {
			s.logger.Error("saving receipt row",
				slog.Int64("user_id", r.UserID),
				slog.Int("row", i),
				slog.Any("error", err))
			return fmt.Errorf("insert check item: %w", err)
		}
	}
	s.logger.Info("receipt saved",
		slog.Int64("user_id", rows[0].UserID),
		slog.Int("rows", len(rows)))
	return nil
}

// ByUser returns every saved row of one user.
func (s *Store) ByUser(ctx context.Context, userID int64) ([]receipt.Record, error) {
	rows, err := s.pool.Query(ctx, selectSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("query check items: %w", err)
	}
	defer rows.Close()

	var out []receipt.Record
	for rows.Next() {
		var r receipt.Record
		err := rows.Scan(&r.UserID, &r.Date, &r.Time, &r.Store, &r.CheckID,
			&r.Category, &r.Product, &r.Quantity, &r.Price, &r.Total, &r.Currency)
		if err != nil {
			return nil, fmt.Errorf("scan check item: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read check items: %w", err)
	}
	return out, nil
}
