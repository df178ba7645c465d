// Package telegram is the thin messenger edge: it long-polls updates,
// converts them into router inputs, and implements the reply transport
// on top of the Bot API.
package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/spendlens/spendlens/internal/config"
	"github.com/spendlens/spendlens/internal/router"
)

const maxMessageLength = 4096

// Handler consumes converted inbound updates.
type Handler interface {
	Handle(ctx context.Context, msg router.Incoming) error
}

type Bot struct {
	api         *tgbotapi.BotAPI
	handler     Handler
	logger      *slog.Logger
	httpClient  *http.Client
	pollTimeout int
	cancel      context.CancelFunc
}

func New(cfg config.TelegramConfig, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 30
	}

	logger := log.With(slog.String("service", "telegram"))
	_ = tgbotapi.SetLogger(&slogBotLogger{log: logger})

	return &Bot{
		api:         api,
		logger:      logger,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		pollTimeout: timeout,
	}, nil
}

// SetHandler wires the update consumer. The bot is also the consumer's
// reply transport, so the handler is attached after construction.
func (b *Bot) SetHandler(h Handler) {
	b.handler = h
}

// Start begins long polling. It returns immediately; updates are
// handled on their own goroutines.
func (b *Bot) Start(ctx context.Context) error {
	if b.handler == nil {
		return fmt.Errorf("telegram: no handler attached")
	}
	runCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(updateConfig)

	b.logger.Info("polling started", slog.String("username", b.api.Self.UserName))

	go func() {
		for {
			select {
			case <-runCtx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					b.logger.Info("updates channel closed")
					return
				}
				msg, ok := b.convert(update)
				if !ok {
					continue
				}
				go func() {
					if err := b.handler.Handle(runCtx, msg); err != nil {
						b.logger.Error("handling update",
							slog.Int64("user_id", msg.UserID),
							slog.Any("error", err))
					}
				}()
			}
		}
	}()
	return nil
}

func (b *Bot) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	b.api.StopReceivingUpdates()
	b.logger.Info("polling stopped")
}

// convert maps a raw update onto the router's inbound shape. Updates
// that carry nothing actionable are dropped.
func (b *Bot) convert(update tgbotapi.Update) (router.Incoming, bool) {
	if update.CallbackQuery != nil {
		cb := update.CallbackQuery
		// Acknowledge so the client stops the spinner.
		if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			b.logger.Warn("answering callback", slog.Any("error", err))
		}
		if cb.From == nil || cb.Message == nil {
			return router.Incoming{}, false
		}
		return router.Incoming{
			UserID:    identityFor(cb.Message.Chat, cb.From),
			ChatID:    cb.Message.Chat.ID,
			MessageID: cb.Message.MessageID,
			Username:  cb.From.UserName,
			FirstName: cb.From.FirstName,
			LastName:  cb.From.LastName,
			Language:  cb.From.LanguageCode,
			Type:      router.ContentCallback,
			Text:      cb.Data,
		}, true
	}

	m := update.Message
	if m == nil || m.From == nil || m.Chat == nil {
		return router.Incoming{}, false
	}

	msg := router.Incoming{
		UserID:    identityFor(m.Chat, m.From),
		ChatID:    m.Chat.ID,
		MessageID: m.MessageID,
		Username:  m.From.UserName,
		FirstName: m.From.FirstName,
		LastName:  m.From.LastName,
		Language:  m.From.LanguageCode,
		Caption:   strings.TrimSpace(m.Caption),
	}

	switch {
	case m.Photo != nil && len(m.Photo) > 0:
		msg.Type = router.ContentPhoto
		// Sizes come smallest first.
		msg.FileID = m.Photo[len(m.Photo)-1].FileID
	case m.Voice != nil:
		msg.Type = router.ContentVoice
		msg.FileID = m.Voice.FileID
		msg.FileName = "voice.ogg"
	case m.Audio != nil:
		msg.Type = router.ContentVoice
		msg.FileID = m.Audio.FileID
		msg.FileName = m.Audio.FileName
	case m.Document != nil:
		msg.Type = router.ContentDocument
		msg.FileID = m.Document.FileID
		msg.FileName = m.Document.FileName
	case strings.TrimSpace(m.Text) != "":
		msg.Type = router.ContentText
		msg.Text = strings.TrimSpace(m.Text)
	default:
		return router.Incoming{}, false
	}

	return msg, true
}

// identityFor keys private chats by the sender and group chats by the
// chat itself, so a group shares one quota and one context.
func identityFor(chat *tgbotapi.Chat, from *tgbotapi.User) int64 {
	if chat.IsPrivate() {
		return from.ID
	}
	return chat.ID
}

var _ router.Transport = (*Bot)(nil)

func (b *Bot) Send(_ context.Context, chatID int64, text string) (int, error) {
	sent, err := b.api.Send(tgbotapi.NewMessage(chatID, clip(text)))
	if err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}
	return sent.MessageID, nil
}

func (b *Bot) SendConfirm(_ context.Context, chatID int64, text string, labels router.ConfirmLabels) (int, error) {
	message := tgbotapi.NewMessage(chatID, clip(text))
	message.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(labels.Accept, router.CallbackAccept),
			tgbotapi.NewInlineKeyboardButtonData(labels.Edit, router.CallbackEdit),
			tgbotapi.NewInlineKeyboardButtonData(labels.Cancel, router.CallbackCancel),
		),
	)
	sent, err := b.api.Send(message)
	if err != nil {
		return 0, fmt.Errorf("send confirm message: %w", err)
	}
	return sent.MessageID, nil
}

func (b *Bot) Delete(_ context.Context, chatID int64, messageID int) error {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

func (b *Bot) Download(ctx context.Context, fileID string) ([]byte, string, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, "", fmt.Errorf("resolve file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build download request: %w", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download file: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, "", fmt.Errorf("download file status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read file body: %w", err)
	}

	name := url[strings.LastIndex(url, "/")+1:]
	return data, name, nil
}

func clip(text string) string {
	if utf8.RuneCountInString(text) <= maxMessageLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxMessageLength])
}

// slogBotLogger adapts the Bot API library's logger to slog.
type slogBotLogger struct {
	log *slog.Logger
}

func (l *slogBotLogger) Println(v ...any) {
	l.log.Debug(fmt.Sprint(v...))
}

func (l *slogBotLogger) Printf(format string, v ...any) {
	l.log.Debug(fmt.Sprintf(format, v...))
}
