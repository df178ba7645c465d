package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrimKeepsLastFour(t *testing.T) {
	t.Parallel()

	turns := []Turn{
		{Role: RoleUser, Content: "one"},
		{Role: RoleAssistant, Content: "two"},
		{Role: RoleUser, Content: "three"},
		{Role: RoleAssistant, Content: "four"},
		{Role: RoleUser, Content: "five"},
	}

	trimmed := Trim(turns)
	assert.Len(t, trimmed, MaxTurns)
	assert.Equal(t, "two", trimmed[0].Content)
	assert.Equal(t, "five", trimmed[3].Content)
}

func TestTrimShortHistoryUntouched(t *testing.T) {
	t.Parallel()

	turns := []Turn{
		{Role: RoleUser, Content: "hello"},
	}
	assert.Equal(t, turns, Trim(turns))
	assert.Nil(t, Trim(nil))
}

func TestTrimExactlyFour(t *testing.T) {
	t.Parallel()

	turns := []Turn{
		{Role: RoleUser, Content: "a"},
		{Role: RoleAssistant, Content: "b"},
		{Role: RoleUser, Content: "c"},
		{Role: RoleAssistant, Content: "d"},
	}
	assert.Equal(t, turns, Trim(turns))
}
