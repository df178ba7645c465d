package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spendlens/spendlens/internal/ai"
	"github.com/spendlens/spendlens/internal/config"
	"github.com/spendlens/spendlens/internal/history"
	"github.com/spendlens/spendlens/internal/i18n"
	"github.com/spendlens/spendlens/internal/profile"
	"github.com/spendlens/spendlens/internal/receipt"
	"github.com/spendlens/spendlens/internal/session"
)

type Router struct {
	transport Transport
	gateway   ai.Gateway
	profiles  Profiles
	history   History
	quota     Quota
	extractor Extractor
	confirmer Confirmer
	reporter  Reporter
	forms     FormLinker
	sessions  *session.Store
	loc       i18n.Localizer
	cfg       config.ChatConfig
	logger    *slog.Logger
}

func New(
	transport Transport,
	gateway ai.Gateway,
	profiles Profiles,
	hist History,
	quota Quota,
	extractor Extractor,
	confirmer Confirmer,
	reporter Reporter,
	forms FormLinker,
	sessions *session.Store,
	loc i18n.Localizer,
	cfg config.ChatConfig,
	logger *slog.Logger,
) *Router {
	return &Router{
		transport: transport,
		gateway:   gateway,
		profiles:  profiles,
		history:   hist,
		quota:     quota,
		extractor: extractor,
		confirmer: confirmer,
		reporter:  reporter,
		forms:     forms,
		sessions:  sessions,
		loc:       loc,
		cfg:       cfg,
		logger:    logger.With(slog.String("service", "router")),
	}
}

// Handle routes one inbound update. Errors are already reported to the
// user by the time they return; the caller only logs them.
func (r *Router) Handle(ctx context.Context, msg Incoming) error {
	locale := msg.Language
	if locale == "" {
		locale = r.cfg.DefaultLocale
	}

	p, err := r.profiles.GetOrCreate(ctx, profile.Defaults(
		msg.UserID, msg.Username, msg.FirstName, msg.LastName, locale, r.cfg.DefaultModel))
	if err != nil {
		r.logger.Error("loading profile", slog.Int64("user_id", msg.UserID), slog.Any("error", err))
		r.reply(ctx, msg.ChatID, r.msg(locale, "error"))
		return err
	}
	if p.Language != "" {
		locale = p.Language
	}

	switch msg.Type {
	case ContentCallback:
		return r.handleCallback(ctx, msg, p, locale)
	case ContentText:
		if strings.HasPrefix(msg.Text, "/") {
			return r.handleCommand(ctx, msg, p, locale)
		}
		return r.handleText(ctx, msg, p, locale)
	case ContentPhoto:
		return r.handlePhoto(ctx, msg, p, locale)
	case ContentVoice:
		return r.handleVoice(ctx, msg, p, locale)
	case ContentDocument:
		return r.handleDocument(ctx, msg, p, locale)
	default:
		r.reply(ctx, msg.ChatID, r.msg(locale, "error"))
		return fmt.Errorf("unknown content type %d", msg.Type)
	}
}

func (r *Router) msg(locale, key string) string {
	return r.loc.Message(locale, key)
}

// reply sends and only logs a failure; the flows never fail because an
// answer could not be delivered.
func (r *Router) reply(ctx context.Context, chatID int64, text string) {
	if _, err := r.transport.Send(ctx, chatID, text); err != nil {
		r.logger.Error("sending reply", slog.Int64("chat_id", chatID), slog.Any("error", err))
	}
}

// placeholder posts the "processing" notice and returns a cleanup that
// deletes it. Cleanup runs in every exit path of a flow and is safe to
// call more than once. The message id is persisted so a notice orphaned
// by a crash mid-flow is removed on the user's next request.
func (r *Router) placeholder(ctx context.Context, p profile.Profile, chatID int64, locale, model string) func() {
	if p.LastPromptMessageID != 0 {
		_ = r.transport.Delete(ctx, chatID, int(p.LastPromptMessageID))
	}
	id, err := r.transport.Send(ctx, chatID, fmt.Sprintf(r.msg(locale, "processing"), model))
	if err != nil {
		r.logger.Warn("sending placeholder", slog.Int64("chat_id", chatID), slog.Any("error", err))
		return func() {}
	}
	if err := r.profiles.UpdateField(ctx, p.UserID, "last_prompt_message_id", int64(id)); err != nil {
		r.logger.Warn("saving prompt message id", slog.Int64("user_id", p.UserID), slog.Any("error", err))
	}
	deleted := false
	return func() {
		if deleted {
			return
		}
		deleted = true
		if err := r.transport.Delete(ctx, chatID, id); err != nil {
			r.logger.Warn("deleting placeholder", slog.Int64("chat_id", chatID), slog.Any("error", err))
			return
		}
		if err := r.profiles.UpdateField(ctx, p.UserID, "last_prompt_message_id", int64(0)); err != nil {
			r.logger.Warn("clearing prompt message id", slog.Int64("user_id", p.UserID), slog.Any("error", err))
		}
	}
}

// recordUsage bumps the daily counters. A bookkeeping failure is not
// the user's problem; the answer was already produced.
func (r *Router) recordUsage(ctx context.Context, userID, tokens int64) {
	if err := r.profiles.AddUsage(ctx, userID, tokens); err != nil {
		r.logger.Error("recording usage", slog.Int64("user_id", userID), slog.Any("error", err))
	}
}

func (r *Router) appendHistory(ctx context.Context, userID int64, turn history.Turn) {
	if err := r.history.Append(ctx, userID, turn); err != nil {
		r.logger.Warn("appending context", slog.Int64("user_id", userID), slog.Any("error", err))
	}
}

// errorMessage maps a backend failure onto the localized wording.
func (r *Router) errorMessage(locale string, err error) string {
	switch {
	case errors.Is(err, receipt.ErrNoAnswer):
		return r.msg(locale, "no_answer")
	case ai.IsRateLimited(err):
		return r.msg(locale, "error_429")
	case ai.IsUnprocessable(err):
		return r.msg(locale, "error_422")
	case ai.IsBadRequest(err):
		return r.msg(locale, "error_400")
	default:
		return r.msg(locale, "error")
	}
}

func (r *Router) confirmLabels(locale string) ConfirmLabels {
	return ConfirmLabels{
		Accept: r.msg(locale, "btn_accept"),
		Edit:   r.msg(locale, "btn_edit"),
		Cancel: r.msg(locale, "btn_cancel"),
	}
}

// renderDraft formats the extraction preview shown above the confirm
// keyboard.
func renderDraft(d receipt.Draft) string {
	var b strings.Builder
	if d.Header.Store != "" {
		fmt.Fprintf(&b, "%s\n", d.Header.Store)
	}
	if d.Header.Date != "" {
		b.WriteString(d.Header.Date)
		if d.Header.Time != "" {
			b.WriteString(" " + d.Header.Time)
		}
		b.WriteString("\n")
	}
	if d.Header.CheckID != "" {
		fmt.Fprintf(&b, "#%s\n", d.Header.CheckID)
	}
	for _, group := range d.Categories {
		if group.Name != "" {
			fmt.Fprintf(&b, "\n%s:\n", group.Name)
		} else {
			b.WriteString("\n")
		}
		for _, item := range group.Items {
			fmt.Fprintf(&b, "  %s x %d - %.2f\n", item.Product, item.Quantity, item.Price)
		}
	}
	currency := d.Header.Currency
	if currency != "" {
		currency = " " + currency
	}
	fmt.Fprintf(&b, "\n= %.2f%s", d.Header.Total, currency)
	return b.String()
}
