package ai

import (
	"context"
	"io"
)

// Message is one role-tagged entry of a model conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Request is a chat-completion call. Temperature and TopP of zero mean
// "use the backend default".
type Request struct {
	Model       string
	Messages    []Message
	Temperature float32
	TopP        float32
	MaxTokens   int
}

// Result is a normalized completion: the text plus total tokens billed.
type Result struct {
	Text   string
	Tokens int
}

// Moderation is the outcome of a content-policy check.
type Moderation struct {
	Flagged    bool
	Categories []string
}

// ImageRequest is an image-generation call.
type ImageRequest struct {
	Model   string
	Prompt  string
	Size    string
	Quality string
}

// Gateway is the uniform interface over all AI backends. Callers never
// branch on backend identity beyond choosing the model string.
type Gateway interface {
	// Complete runs a chat completion and normalizes the answer to
	// (text, tokens used).
	Complete(ctx context.Context, req Request) (Result, error)
	// CompleteVision runs a chat completion with an attached image
	// (receipt scans, photo questions). The image is sent inline.
	CompleteVision(ctx context.Context, req Request, image []byte) (Result, error)
	// Moderate checks text plus an optional image against content policy.
	Moderate(ctx context.Context, text string, image []byte) (Moderation, error)
	// GenerateImage returns the URL of a generated image. Zero tokens
	// are reported for image calls.
	GenerateImage(ctx context.Context, req ImageRequest) (string, error)
	// Transcribe converts speech audio to text.
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}
