package ai

import (
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// Error is the single error shape all backends are normalized to.
// Status carries the HTTP status, Code the provider's own code.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("ai backend: %d/%s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("ai backend: %d: %s", e.Status, e.Message)
}

// IsRateLimited reports a 429 from the backend.
func IsRateLimited(err error) bool { return statusOf(err) == http.StatusTooManyRequests }

// IsUnprocessable reports a 422 from the backend.
func IsUnprocessable(err error) bool { return statusOf(err) == http.StatusUnprocessableEntity }

// IsBadRequest reports a 400 from the backend.
func IsBadRequest(err error) bool { return statusOf(err) == http.StatusBadRequest }

func statusOf(err error) int {
	var aiErr *Error
	if errors.As(err, &aiErr) {
		return aiErr.Status
	}
	return 0
}

// wrapProviderError converts SDK errors into *Error. Non-API failures
// (network, context cancellation) pass through wrapped.
func wrapProviderError(op string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := ""
		if apiErr.Code != nil {
			code = fmt.Sprint(apiErr.Code)
		}
		return &Error{
			Status:  apiErr.HTTPStatusCode,
			Code:    code,
			Message: apiErr.Message,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &Error{
			Status:  reqErr.HTTPStatusCode,
			Message: reqErr.Error(),
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
