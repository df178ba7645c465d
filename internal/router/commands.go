package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spendlens/spendlens/internal/profile"
	"github.com/spendlens/spendlens/internal/records"
	"github.com/spendlens/spendlens/internal/session"
)

func (r *Router) handleCommand(ctx context.Context, msg Incoming, p profile.Profile, locale string) error {
	fields := strings.Fields(msg.Text)
	command := strings.ToLower(fields[0])
	// Group chats address commands as /command@botname.
	if at := strings.Index(command, "@"); at > 0 {
		command = command[:at]
	}
	arg := strings.TrimSpace(strings.Join(fields[1:], " "))

	switch command {
	case "/start":
		r.sessions.Reset(p.UserID)
		r.reply(ctx, msg.ChatID, r.msg(locale, "start"))
	case "/help":
		r.reply(ctx, msg.ChatID, r.msg(locale, "help"))

	case "/clear":
		if err := r.history.Clear(ctx, p.UserID); err != nil {
			r.logger.Error("clearing history", slog.Int64("user_id", p.UserID), slog.Any("error", err))
			r.reply(ctx, msg.ChatID, r.msg(locale, "error"))
			return err
		}
		r.reply(ctx, msg.ChatID, r.msg(locale, "context_cleared"))

	case "/context":
		enabled := !p.ContextEnabled
		if err := r.profiles.UpdateField(ctx, p.UserID, "context_enabled", enabled); err != nil {
			r.logger.Error("toggling context", slog.Int64("user_id", p.UserID), slog.Any("error", err))
			r.reply(ctx, msg.ChatID, r.msg(locale, "error"))
			return err
		}
		key := "context_disabled"
		if enabled {
			key = "context_enabled"
		}
		r.reply(ctx, msg.ChatID, r.msg(locale, key))

	case "/web":
		enabled := !p.WebEnabled
		if err := r.profiles.UpdateField(ctx, p.UserID, "web_enabled", enabled); err != nil {
			r.logger.Error("toggling web search", slog.Int64("user_id", p.UserID), slog.Any("error", err))
			r.reply(ctx, msg.ChatID, r.msg(locale, "error"))
			return err
		}
		key := "web_disabled"
		if enabled {
			key = "web_enabled"
		}
		r.reply(ctx, msg.ChatID, r.msg(locale, key))

	case "/model":
		if arg == "" {
			current := p.Model
			if current == "" {
				current = r.cfg.DefaultModel
			}
			r.reply(ctx, msg.ChatID, fmt.Sprintf(r.msg(locale, "model_current"), current))
			return nil
		}
		return r.setPreference(ctx, msg, p, locale, "model", arg)

	case "/resolution":
		return r.setPreference(ctx, msg, p, locale, "resolution", arg)

	case "/quality":
		return r.setPreference(ctx, msg, p, locale, "quality", arg)

	case "/role":
		r.sessions.SetState(p.UserID, session.AwaitingRole)
		r.reply(ctx, msg.ChatID, r.msg(locale, "ask_role"))

	case "/image":
		r.sessions.SetState(p.UserID, session.AwaitingImagePrompt)
		r.reply(ctx, msg.ChatID, r.msg(locale, "ask_image_prompt"))

	case "/receipt":
		r.sessions.SetState(p.UserID, session.AwaitingReceiptImage)
		r.reply(ctx, msg.ChatID, r.msg(locale, "ask_receipt"))

	case "/report":
		rows, err := r.reporter.ByUser(ctx, p.UserID)
		if err != nil {
			r.logger.Error("reading report rows", slog.Int64("user_id", p.UserID), slog.Any("error", err))
			r.reply(ctx, msg.ChatID, r.msg(locale, "error"))
			return err
		}
		r.reply(ctx, msg.ChatID, records.Render(r.loc, locale, records.Summarize(rows)))

	case "/form":
		link, err := r.forms.Link(p.UserID)
		if err != nil {
			r.logger.Error("minting form link", slog.Int64("user_id", p.UserID), slog.Any("error", err))
			r.reply(ctx, msg.ChatID, r.msg(locale, "error"))
			return err
		}
		r.reply(ctx, msg.ChatID, fmt.Sprintf(r.msg(locale, "form_link"), link))

	default:
		r.reply(ctx, msg.ChatID, r.msg(locale, "help"))
	}
	return nil
}

// setPreference writes one whitelisted profile field from a command
// argument. An empty argument shows the current value instead.
func (r *Router) setPreference(ctx context.Context, msg Incoming, p profile.Profile, locale, field, value string) error {
	if value == "" {
		current := ""
		switch field {
		case "resolution":
			current = p.Resolution
		case "quality":
			current = p.Quality
		case "model":
			current = p.Model
		}
		r.reply(ctx, msg.ChatID, fmt.Sprintf(r.msg(locale, "pref_current"), field, current))
		return nil
	}
	if err := r.profiles.UpdateField(ctx, p.UserID, field, value); err != nil {
		r.logger.Error("saving preference",
			slog.Int64("user_id", p.UserID),
			slog.String("field", field),
			slog.Any("error", err))
		r.reply(ctx, msg.ChatID, r.msg(locale, "error"))
		return err
	}
	r.reply(ctx, msg.ChatID, r.msg(locale, "pref_saved"))
	return nil
}
