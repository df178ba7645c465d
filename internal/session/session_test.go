package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendlens/spendlens/internal/receipt"
)

func TestUnknownUserIsIdle(t *testing.T) {
	s := NewStore()
	assert.Equal(t, Idle, s.StateOf(99))
}

func TestSetState(t *testing.T) {
	s := NewStore()
	s.SetState(1, AwaitingRole)
	assert.Equal(t, AwaitingRole, s.StateOf(1))
	assert.Equal(t, Idle, s.StateOf(2))
}

func TestDraftLastWriteWins(t *testing.T) {
	s := NewStore()
	s.PutDraft(1, receipt.Draft{Header: receipt.Header{Store: "First"}})
	s.PutDraft(1, receipt.Draft{Header: receipt.Header{Store: "Second"}})

	draft, ok := s.Draft(1)
	require.True(t, ok)
	assert.Equal(t, "Second", draft.Header.Store)
}

func TestDraftIsolatedPerUser(t *testing.T) {
	s := NewStore()
	s.PutDraft(1, receipt.Draft{Header: receipt.Header{Store: "Mine"}})

	_, ok := s.Draft(2)
	assert.False(t, ok)
}

func TestPutDraftReturnsUserToIdle(t *testing.T) {
	s := NewStore()
	s.SetState(1, AwaitingReceiptImage)
	s.PutDraft(1, receipt.Draft{})
	assert.Equal(t, Idle, s.StateOf(1))
}

func TestClearDraft(t *testing.T) {
	s := NewStore()
	assert.False(t, s.ClearDraft(1))

	s.PutDraft(1, receipt.Draft{})
	assert.True(t, s.ClearDraft(1))
	assert.False(t, s.ClearDraft(1))

	_, ok := s.Draft(1)
	assert.False(t, ok)
}

func TestReset(t *testing.T) {
	s := NewStore()
	s.SetState(1, AwaitingReceiptEdit)
	s.PutDraft(1, receipt.Draft{})
	s.Reset(1)

	assert.Equal(t, Idle, s.StateOf(1))
	_, ok := s.Draft(1)
	assert.False(t, ok)
}

func TestConcurrentAccess(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.SetState(id, AwaitingRole)
			s.PutDraft(id, receipt.Draft{})
			s.ClearDraft(id)
		}(int64(i % 5))
	}
	wg.Wait()
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "awaiting_receipt_edit", AwaitingReceiptEdit.String())
	assert.Equal(t, "unknown", State(42).String())
}
