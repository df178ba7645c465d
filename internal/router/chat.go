package router

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spendlens/spendlens/internal/ai"
	"github.com/spendlens/spendlens/internal/config"
	"github.com/spendlens/spendlens/internal/history"
	"github.com/spendlens/spendlens/internal/profile"
	"github.com/spendlens/spendlens/internal/session"
)

func (r *Router) handleText(ctx context.Context, msg Incoming, p profile.Profile, locale string) error {
	switch r.sessions.StateOf(p.UserID) {
	case session.AwaitingRole:
		if err := r.profiles.UpdateField(ctx, p.UserID, "role", msg.Text); err != nil {
			r.logger.Error("saving role", slog.Int64("user_id", p.UserID), slog.Any("error", err))
			r.reply(ctx, msg.ChatID, r.msg(locale, "error"))
			return err
		}
		r.sessions.SetState(p.UserID, session.Idle)
		r.reply(ctx, msg.ChatID, r.msg(locale, "role_saved"))
		return nil

	case session.AwaitingImagePrompt:
		return r.generateImage(ctx, msg, p, locale)

	case session.AwaitingReceiptEdit:
		return r.captureReceiptText(ctx, msg, p, locale, r.extractor.FromManualEntry)

	case session.AwaitingReceiptImage:
		// Raw receipt text is welcome too; it just goes through the
		// full normalize stage first.
		return r.captureReceiptText(ctx, msg, p, locale, r.extractor.FromOCRText)

	default:
		return r.chat(ctx, msg, p, locale, msg.Text)
	}
}

// chat runs one moderated completion round and maintains the rolling
// context when the user has it enabled.
func (r *Router) chat(ctx context.Context, msg Incoming, p profile.Profile, locale, text string) error {
	if !r.quota.Check(ctx, p) {
		r.reply(ctx, msg.ChatID, r.msg(locale, "limit_reached"))
		return nil
	}

	model := p.Model
	if model == "" {
		model = r.cfg.DefaultModel
	}

	cleanup := r.placeholder(ctx, p, msg.ChatID, locale, model)
	defer cleanup()

	moderation, err := r.gateway.Moderate(ctx, text, nil)
	if err != nil {
		r.reply(ctx, msg.ChatID, r.errorMessage(locale, err))
		return err
	}
	if moderation.Flagged {
		r.reply(ctx, msg.ChatID, fmt.Sprintf(r.msg(locale, "moderation"),
			strings.Join(moderation.Categories, ", ")))
		return nil
	}

	messages := r.buildMessages(ctx, p, text)
	result, err := r.gateway.Complete(ctx, ai.Request{
		Model:       model,
		Messages:    messages,
		Temperature: float32(p.Temperature),
		TopP:        float32(p.TopP),
		MaxTokens:   r.cfg.MaxTokens,
	})
	if err != nil {
		r.reply(ctx, msg.ChatID, r.errorMessage(locale, err))
		return err
	}

	r.recordUsage(ctx, p.UserID, int64(result.Tokens))
	if p.ContextEnabled {
		r.appendHistory(ctx, p.UserID, history.Turn{Role: history.RoleUser, Content: text})
		r.appendHistory(ctx, p.UserID, history.Turn{Role: history.RoleAssistant, Content: result.Text})
	}

	r.reply(ctx, msg.ChatID, result.Text)
	return nil
}

// buildMessages assembles system role, rolling context and the new
// user message. A failed context read degrades to a contextless round.
func (r *Router) buildMessages(ctx context.Context, p profile.Profile, text string) []ai.Message {
	var messages []ai.Message
	if p.Role != "" {
		messages = append(messages, ai.Message{Role: ai.RoleSystem, Content: p.Role})
	}
	if p.ContextEnabled {
		turns, err := r.history.Read(ctx, p.UserID)
		if err != nil {
			r.logger.Warn("reading context", slog.Int64("user_id", p.UserID), slog.Any("error", err))
		}
		for _, turn := range turns {
			messages = append(messages, ai.Message{Role: turn.Role, Content: turn.Content})
		}
	}
	return append(messages, ai.Message{Role: ai.RoleUser, Content: text})
}

func (r *Router) generateImage(ctx context.Context, msg Incoming, p profile.Profile, locale string) error {
	if !r.quota.Check(ctx, p) {
		r.reply(ctx, msg.ChatID, r.msg(locale, "limit_reached"))
		return nil
	}

	cleanup := r.placeholder(ctx, p, msg.ChatID, locale, config.DefaultImageModel)
	defer cleanup()

	r.sessions.SetState(p.UserID, session.Idle)

	url, err := r.gateway.GenerateImage(ctx, ai.ImageRequest{
		Model:   config.DefaultImageModel,
		Prompt:  msg.Text,
		Size:    p.Resolution,
		Quality: p.Quality,
	})
	if err != nil {
		r.reply(ctx, msg.ChatID, fmt.Sprintf(r.msg(locale, "image_failed"), r.errorMessage(locale, err)))
		return err
	}

	r.recordUsage(ctx, p.UserID, 0)
	r.reply(ctx, msg.ChatID, url)
	return nil
}

func (r *Router) handlePhoto(ctx context.Context, msg Incoming, p profile.Profile, locale string) error {
	// Messenger photos are recompressed; receipts need the original
	// file for the small print to survive.
	if r.sessions.StateOf(p.UserID) == session.AwaitingReceiptImage {
		r.reply(ctx, msg.ChatID, r.msg(locale, "use_document"))
		return nil
	}

	if !r.quota.Check(ctx, p) {
		r.reply(ctx, msg.ChatID, r.msg(locale, "limit_reached"))
		return nil
	}

	model := config.DefaultVisionModel
	cleanup := r.placeholder(ctx, p, msg.ChatID, locale, model)
	defer cleanup()

	image, _, err := r.transport.Download(ctx, msg.FileID)
	if err != nil {
		r.logger.Error("downloading photo", slog.Int64("user_id", p.UserID), slog.Any("error", err))
		r.reply(ctx, msg.ChatID, r.msg(locale, "error"))
		return err
	}

	moderation, err := r.gateway.Moderate(ctx, msg.Caption, image)
	if err != nil {
		r.reply(ctx, msg.ChatID, r.errorMessage(locale, err))
		return err
	}
	if moderation.Flagged {
		r.reply(ctx, msg.ChatID, fmt.Sprintf(r.msg(locale, "moderation"),
			strings.Join(moderation.Categories, ", ")))
		return nil
	}

	question := msg.Caption
	if question == "" {
		question = "Describe this image."
	}

	var messages []ai.Message
	if p.Role != "" {
		messages = append(messages, ai.Message{Role: ai.RoleSystem, Content: p.Role})
	}
	messages = append(messages, ai.Message{Role: ai.RoleUser, Content: question})

	result, err := r.gateway.CompleteVision(ctx, ai.Request{
		Model:     model,
		Messages:  messages,
		MaxTokens: r.cfg.MaxTokens,
	}, image)
	if err != nil {
		r.reply(ctx, msg.ChatID, r.errorMessage(locale, err))
		return err
	}

	r.recordUsage(ctx, p.UserID, int64(result.Tokens))
	r.reply(ctx, msg.ChatID, result.Text)
	return nil
}

func (r *Router) handleVoice(ctx context.Context, msg Incoming, p profile.Profile, locale string) error {
	if !r.quota.Check(ctx, p) {
		r.reply(ctx, msg.ChatID, r.msg(locale, "limit_reached"))
		return nil
	}

	cleanup := r.placeholder(ctx, p, msg.ChatID, locale, config.DefaultSpeechModel)
	defer cleanup()

	audio, name, err := r.transport.Download(ctx, msg.FileID)
	if err != nil {
		r.logger.Error("downloading voice", slog.Int64("user_id", p.UserID), slog.Any("error", err))
		r.reply(ctx, msg.ChatID, r.msg(locale, "error"))
		return err
	}
	if name == "" {
		name = "voice.ogg"
	}

	text, err := r.gateway.Transcribe(ctx, bytes.NewReader(audio), name)
	if err != nil {
		r.reply(ctx, msg.ChatID, r.errorMessage(locale, err))
		return err
	}
	if strings.TrimSpace(text) == "" {
		r.reply(ctx, msg.ChatID, r.msg(locale, "empty_file"))
		return nil
	}

	cleanup()
	// A transcribed voice note continues the conversation like text.
	return r.chat(ctx, msg, p, locale, text)
}
