package ai

import (
	"errors"
	"fmt"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapProviderErrorAPIError(t *testing.T) {
	t.Parallel()

	src := &openai.APIError{
		HTTPStatusCode: 429,
		Code:           "rate_limit_exceeded",
		Message:        "slow down",
	}
	err := wrapProviderError("chat completion", src)

	var aiErr *Error
	require.True(t, errors.As(err, &aiErr))
	assert.Equal(t, 429, aiErr.Status)
	assert.Equal(t, "rate_limit_exceeded", aiErr.Code)
	assert.True(t, IsRateLimited(err))
	assert.False(t, IsBadRequest(err))
}

func TestWrapProviderErrorTaxonomy(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status int
		check  func(error) bool
	}{
		{429, IsRateLimited},
		{422, IsUnprocessable},
		{400, IsBadRequest},
	}
	for _, tc := range cases {
		err := wrapProviderError("op", &openai.APIError{HTTPStatusCode: tc.status})
		assert.Truef(t, tc.check(err), "status %d", tc.status)
	}
}

func TestWrapProviderErrorPassthrough(t *testing.T) {
	t.Parallel()

	src := fmt.Errorf("dial tcp: connection refused")
	err := wrapProviderError("chat completion", src)
	require.Error(t, err)

	var aiErr *Error
	assert.False(t, errors.As(err, &aiErr))
	assert.ErrorIs(t, err, src)
	assert.False(t, IsRateLimited(err))
}

func TestWrapProviderErrorNil(t *testing.T) {
	t.Parallel()
	assert.NoError(t, wrapProviderError("op", nil))
}

func TestErrorString(t *testing.T) {
	t.Parallel()

	e := &Error{Status: 422, Code: "unprocessable", Message: "bad input"}
	assert.Contains(t, e.Error(), "422")
	assert.Contains(t, e.Error(), "unprocessable")
}
