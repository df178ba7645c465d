package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/spendlens/spendlens/internal/db"
)

var ErrNotFound = errors.New("profile not found")

// updatableFields whitelists columns UpdateField may touch. Field names
// are interpolated into SQL, so anything outside this set is rejected.
var updatableFields = map[string]struct{}{
	"username":               {},
	"first_name":             {},
	"last_name":              {},
	"language":               {},
	"context_enabled":        {},
	"web_enabled":            {},
	"set_answer_temp":        {},
	"set_answer_top_p":       {},
	"model":                  {},
	"tokens":                 {},
	"requests":               {},
	"date_requests":          {},
	"role":                   {},
	"in_limit_list":          {},
	"resolution":             {},
	"quality":                {},
	"last_prompt_message_id": {},
}

// Store reads and writes user profiles in the chat_ids table.
type Store struct {
	pool   db.Pool
	logger *slog.Logger
}

func NewStore(log *slog.Logger, pool db.Pool) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		pool:   pool,
		logger: log.With(slog.String("service", "profile")),
	}
}

const selectColumns = `user_id, COALESCE(username, ''), COALESCE(first_name, ''), COALESCE(last_name, ''),
	COALESCE(language, 'en'), COALESCE(context_enabled, false), COALESCE(web_enabled, false),
	COALESCE(set_answer_temp, 0.7), COALESCE(set_answer_top_p, 1.0), COALESCE(model, ''),
	COALESCE(tokens, 0), COALESCE(requests, 0), COALESCE(date_requests, CURRENT_DATE),
	COALESCE(role, ''), COALESCE(in_limit_list, 'default_list'),
	COALESCE(resolution, '1024x1024'), COALESCE(quality, 'standard'),
	COALESCE(last_prompt_message_id, 0)`

// Get loads a profile. Returns ErrNotFound when the user is unknown.
func (s *Store) Get(ctx context.Context, userID int64) (Profile, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM chat_ids WHERE user_id = $1 LIMIT 1;`, userID)

	var p Profile
	err := row.Scan(&p.UserID, &p.Username, &p.FirstName, &p.LastName,
		&p.Language, &p.ContextEnabled, &p.WebEnabled,
		&p.Temperature, &p.TopP, &p.Model,
		&p.Tokens, &p.Requests, &p.DateRequests,
		&p.Role, &p.Tier, &p.Resolution, &p.Quality,
		&p.LastPromptMessageID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("read profile %d: %w", userID, err)
	}
	return p, nil
}

// Create inserts a new profile row.
func (s *Store) Create(ctx context.Context, p Profile) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO chat_ids (user_id, username, first_name, last_name, language,
			context_enabled, web_enabled, set_answer_temp, set_answer_top_p, model,
			tokens, requests, date_requests, role, in_limit_list, resolution, quality,
			last_prompt_message_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);`,
		p.UserID, p.Username, p.FirstName, p.LastName, p.Language,
		p.ContextEnabled, p.WebEnabled, p.Temperature, p.TopP, p.Model,
		p.Tokens, p.Requests, p.DateRequests, p.Role, p.Tier, p.Resolution, p.Quality,
		p.LastPromptMessageID)
	if err != nil {
		return fmt.Errorf("create profile %d: %w", p.UserID, err)
	}
	s.logger.Info("profile created", slog.Int64("user_id", p.UserID))
	return nil
}

// GetOrCreate loads the profile, creating it with defaults on first contact.
func (s *Store) GetOrCreate(ctx context.Context, fresh Profile) (Profile, error) {
	p, err := s.Get(ctx, fresh.UserID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Profile{}, err
	}
	if err := s.Create(ctx, fresh); err != nil {
		return Profile{}, err
	}
	return fresh, nil
}

// UpdateField sets a single whitelisted column for the user.
func (s *Store) UpdateField(ctx context.Context, userID int64, field string, value any) error {
	if _, ok := updatableFields[field]; ok {
		if err := db.ValidateIdentifier(field); err != nil {
			return err
		}
	} else {
		return fmt.Errorf("field %q is not updatable", field)
	}
	_, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE chat_ids SET %s = $2 WHERE user_id = $1;`, field),
		userID, value)
	if err != nil {
		return fmt.Errorf("update %s for %d: %w", field, userID, err)
	}
	return nil
}

// AddUsage increments the daily counters after a successful backend call.
// Read-modify-write without transaction isolation: concurrent messages
// from the same user can race on the counters (known gap).
func (s *Store) AddUsage(ctx context.Context, userID int64, tokens int64) error {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.UpdateField(ctx, userID, "tokens", p.Tokens+tokens); err != nil {
		return err
	}
	return s.UpdateField(ctx, userID, "requests", p.Requests+1)
}
