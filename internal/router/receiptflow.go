package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spendlens/spendlens/internal/config"
	"github.com/spendlens/spendlens/internal/confirm"
	"github.com/spendlens/spendlens/internal/profile"
	"github.com/spendlens/spendlens/internal/receipt"
	"github.com/spendlens/spendlens/internal/session"
)

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

const supportedExtensions = ".jpg, .jpeg, .png, .webp, .txt"

func (r *Router) handleDocument(ctx context.Context, msg Incoming, p profile.Profile, locale string) error {
	ext := strings.ToLower(filepath.Ext(msg.FileName))

	if _, ok := imageExtensions[ext]; ok {
		return r.captureReceiptImage(ctx, msg, p, locale)
	}

	if ext == ".txt" {
		data, _, err := r.transport.Download(ctx, msg.FileID)
		if err != nil {
			r.logger.Error("downloading document", slog.Int64("user_id", p.UserID), slog.Any("error", err))
			r.reply(ctx, msg.ChatID, r.msg(locale, "error"))
			return err
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			r.reply(ctx, msg.ChatID, r.msg(locale, "empty_file"))
			return nil
		}
		if r.sessions.StateOf(p.UserID) == session.AwaitingReceiptImage {
			return r.captureReceiptText(ctx, Incoming{
				UserID: msg.UserID, ChatID: msg.ChatID, Text: text,
			}, p, locale, r.extractor.FromOCRText)
		}
		if msg.Caption != "" {
			text = msg.Caption + "\n\n" + text
		}
		return r.chat(ctx, msg, p, locale, text)
	}

	r.reply(ctx, msg.ChatID, fmt.Sprintf(r.msg(locale, "unsupported_file"), supportedExtensions))
	return nil
}

// captureReceiptImage runs the vision extraction over an uncompressed
// receipt file and parks the result as the user's pending draft.
func (r *Router) captureReceiptImage(ctx context.Context, msg Incoming, p profile.Profile, locale string) error {
	if !r.quota.Check(ctx, p) {
		r.reply(ctx, msg.ChatID, r.msg(locale, "limit_reached"))
		return nil
	}

	cleanup := r.placeholder(ctx, p, msg.ChatID, locale, config.DefaultVisionModel)
	defer cleanup()

	image, _, err := r.transport.Download(ctx, msg.FileID)
	if err != nil {
		r.logger.Error("downloading receipt", slog.Int64("user_id", p.UserID), slog.Any("error", err))
		r.reply(ctx, msg.ChatID, r.msg(locale, "error"))
		return err
	}

	draft, tokens, err := r.extractor.FromImage(ctx, image)
	if tokens > 0 {
		r.recordUsage(ctx, p.UserID, tokens)
	}
	if err != nil {
		r.reply(ctx, msg.ChatID, r.errorMessage(locale, err))
		return err
	}

	return r.presentDraft(ctx, msg.ChatID, p.UserID, locale, draft)
}

// captureReceiptText handles typed or edited receipt text through the
// given extraction stage.
func (r *Router) captureReceiptText(
	ctx context.Context,
	msg Incoming,
	p profile.Profile,
	locale string,
	extract func(context.Context, string) (receipt.Draft, int64, error),
) error {
	if !r.quota.Check(ctx, p) {
		r.reply(ctx, msg.ChatID, r.msg(locale, "limit_reached"))
		return nil
	}

	cleanup := r.placeholder(ctx, p, msg.ChatID, locale, r.cfg.DefaultModel)
	defer cleanup()

	draft, tokens, err := extract(ctx, msg.Text)
	if tokens > 0 {
		r.recordUsage(ctx, p.UserID, tokens)
	}
	if err != nil {
		r.reply(ctx, msg.ChatID, r.errorMessage(locale, err))
		return err
	}

	return r.presentDraft(ctx, msg.ChatID, p.UserID, locale, draft)
}

// presentDraft replaces any pending draft and shows the preview with
// the confirm keyboard.
func (r *Router) presentDraft(ctx context.Context, chatID, userID int64, locale string, draft receipt.Draft) error {
	r.sessions.PutDraft(userID, draft)

	_, err := r.transport.SendConfirm(ctx, chatID, renderDraft(draft), r.confirmLabels(locale))
	if err != nil {
		r.logger.Error("sending draft preview", slog.Int64("chat_id", chatID), slog.Any("error", err))
	}
	return err
}

func (r *Router) handleCallback(ctx context.Context, msg Incoming, p profile.Profile, locale string) error {
	switch msg.Text {
	case CallbackAccept:
		n, err := r.confirmer.Accept(ctx, p.UserID)
		switch {
		case errors.Is(err, confirm.ErrNothingPending):
			r.reply(ctx, msg.ChatID, r.msg(locale, "nothing_pending"))
			return nil
		case err != nil:
			r.reply(ctx, msg.ChatID, r.msg(locale, "save_failed"))
			return err
		}
		r.dropPreview(ctx, msg)
		r.logger.Info("receipt committed",
			slog.Int64("user_id", p.UserID), slog.Int("rows", n))
		r.reply(ctx, msg.ChatID, r.msg(locale, "receipt_saved")+" "+r.msg(locale, "receipt_continue"))
		return nil

	case CallbackEdit:
		if err := r.confirmer.Edit(p.UserID); err != nil {
			r.reply(ctx, msg.ChatID, r.msg(locale, "nothing_pending"))
			return nil
		}
		r.reply(ctx, msg.ChatID, r.msg(locale, "ask_receipt_edit"))
		return nil

	case CallbackCancel:
		if !r.confirmer.Cancel(p.UserID) {
			r.reply(ctx, msg.ChatID, r.msg(locale, "nothing_pending"))
			return nil
		}
		r.dropPreview(ctx, msg)
		r.reply(ctx, msg.ChatID, r.msg(locale, "receipt_discard"))
		return nil

	default:
		r.logger.Warn("unknown callback", slog.String("data", msg.Text))
		return nil
	}
}

// dropPreview removes the preview message so its keyboard cannot be
// pressed again.
func (r *Router) dropPreview(ctx context.Context, msg Incoming) {
	if msg.MessageID == 0 {
		return
	}
	if err := r.transport.Delete(ctx, msg.ChatID, msg.MessageID); err != nil {
		r.logger.Warn("deleting draft preview", slog.Any("error", err))
	}
}
