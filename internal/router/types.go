// Package router dispatches incoming chat updates on content type and
// conversation mode, and owns the reply flow around the AI gateway:
// quota gating, moderation, the processing placeholder, and error
// wording. It talks to the messenger only through the Transport
// interface, so the Telegram adapter stays thin.
package router

import (
	"context"

	"github.com/spendlens/spendlens/internal/history"
	"github.com/spendlens/spendlens/internal/profile"
	"github.com/spendlens/spendlens/internal/receipt"
)

// ContentType tags what kind of update arrived.
type ContentType int

const (
	ContentText ContentType = iota
	ContentPhoto
	ContentVoice
	ContentDocument
	ContentCallback
)

// Incoming is a messenger-agnostic inbound update.
type Incoming struct {
	UserID    int64
	ChatID    int64
	MessageID int

	Username  string
	FirstName string
	LastName  string
	Language  string

	Type ContentType
	// Text carries the message text, or the callback payload for
	// ContentCallback updates.
	Text    string
	Caption string

	// FileID references the attached file for photo, voice and
	// document updates; FileName is empty for photos and voice.
	FileID   string
	FileName string
}

// Callback payloads attached to the draft preview keyboard.
const (
	CallbackAccept = "receipt:accept"
	CallbackEdit   = "receipt:edit"
	CallbackCancel = "receipt:cancel"
)

// ConfirmLabels are the localized captions of the preview keyboard.
type ConfirmLabels struct {
	Accept string
	Edit   string
	Cancel string
}

// Transport sends replies back through the messenger.
type Transport interface {
	Send(ctx context.Context, chatID int64, text string) (int, error)
	// SendConfirm sends text with the accept / edit / discard keyboard
	// attached.
	SendConfirm(ctx context.Context, chatID int64, text string, labels ConfirmLabels) (int, error)
	Delete(ctx context.Context, chatID int64, messageID int) error
	// Download fetches an attached file and returns its bytes and name.
	Download(ctx context.Context, fileID string) ([]byte, string, error)
}

// Profiles is the profile storage the router depends on.
type Profiles interface {
	GetOrCreate(ctx context.Context, fresh profile.Profile) (profile.Profile, error)
	UpdateField(ctx context.Context, userID int64, field string, value any) error
	AddUsage(ctx context.Context, userID int64, tokens int64) error
}

// History is the rolling conversation context store.
type History interface {
	Read(ctx context.Context, userID int64) ([]history.Turn, error)
	Append(ctx context.Context, userID int64, turn history.Turn) error
	Clear(ctx context.Context, userID int64) error
}

// Quota reports whether a user may spend another request today.
type Quota interface {
	Check(ctx context.Context, p profile.Profile) bool
}

// Extractor turns receipt inputs into drafts.
type Extractor interface {
	FromImage(ctx context.Context, image []byte) (receipt.Draft, int64, error)
	FromOCRText(ctx context.Context, raw string) (receipt.Draft, int64, error)
	FromManualEntry(ctx context.Context, text string) (receipt.Draft, int64, error)
}

// Confirmer decides the fate of a pending draft.
type Confirmer interface {
	Accept(ctx context.Context, userID int64) (int, error)
	Cancel(userID int64) bool
	Edit(userID int64) error
}

// Reporter reads saved receipt rows for the spending report.
type Reporter interface {
	ByUser(ctx context.Context, userID int64) ([]receipt.Record, error)
}

// FormLinker mints a short-lived link to the manual entry web form.
type FormLinker interface {
	Link(userID int64) (string, error)
}
