// Package session keeps per-user conversational state that must not
// survive a restart: what the bot is currently waiting for and the
// receipt draft awaiting confirmation. State is keyed by user so
// concurrent users never observe each other's drafts.
package session

import (
	"sync"

	"github.com/spendlens/spendlens/internal/receipt"
)

// State tags what the next incoming message from a user means.
type State int

const (
	Idle State = iota
	AwaitingRole
	AwaitingImagePrompt
	AwaitingReceiptImage
	AwaitingReceiptEdit
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingRole:
		return "awaiting_role"
	case AwaitingImagePrompt:
		return "awaiting_image_prompt"
	case AwaitingReceiptImage:
		return "awaiting_receipt_image"
	case AwaitingReceiptEdit:
		return "awaiting_receipt_edit"
	default:
		return "unknown"
	}
}

type entry struct {
	state State
	draft *receipt.Draft
}

// Store is an in-memory per-user session table.
type Store struct {
	mu      sync.Mutex
	entries map[int64]*entry
}

func NewStore() *Store {
	return &Store{entries: make(map[int64]*entry)}
}

func (s *Store) get(userID int64) *entry {
	e, ok := s.entries[userID]
	if !ok {
		e = &entry{}
		s.entries[userID] = e
	}
	return e
}

// StateOf returns the user's current state; unknown users are Idle.
func (s *Store) StateOf(userID int64) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[userID]; ok {
		return e.state
	}
	return Idle
}

// SetState moves the user to the given state.
func (s *Store) SetState(userID int64, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(userID).state = state
}

// PutDraft stores a pending draft. A draft already pending for the
// same user is silently replaced: the newest extraction wins.
func (s *Store) PutDraft(userID int64, draft receipt.Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.get(userID)
	e.draft = &draft
	e.state = Idle
}

// Draft returns the pending draft, if any.
func (s *Store) Draft(userID int64) (receipt.Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	if !ok || e.draft == nil {
		return receipt.Draft{}, false
	}
	return *e.draft, true
}

// ClearDraft drops the pending draft and returns whether one existed.
func (s *Store) ClearDraft(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	if !ok || e.draft == nil {
		return false
	}
	e.draft = nil
	return true
}

// Reset returns the user to Idle with no pending draft.
func (s *Store) Reset(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
}
