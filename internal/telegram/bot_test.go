package telegram

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendlens/spendlens/internal/router"
)

func testBot() *Bot {
	return &Bot{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func privateChat() *tgbotapi.Chat {
	return &tgbotapi.Chat{ID: 100, Type: "private"}
}

func groupChat() *tgbotapi.Chat {
	return &tgbotapi.Chat{ID: -200, Type: "group"}
}

func TestConvertTextMessage(t *testing.T) {
	update := tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 7,
		From:      &tgbotapi.User{ID: 100, UserName: "alice", LanguageCode: "en"},
		Chat:      privateChat(),
		Text:      "  hello  ",
	}}

	msg, ok := testBot().convert(update)
	require.True(t, ok)
	assert.Equal(t, router.ContentText, msg.Type)
	assert.Equal(t, "hello", msg.Text)
	assert.Equal(t, int64(100), msg.UserID)
	assert.Equal(t, int64(100), msg.ChatID)
	assert.Equal(t, "alice", msg.Username)
}

func TestConvertGroupMessageKeyedByChat(t *testing.T) {
	update := tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 100},
		Chat: groupChat(),
		Text: "hi all",
	}}

	msg, ok := testBot().convert(update)
	require.True(t, ok)
	assert.Equal(t, int64(-200), msg.UserID, "group chats share one identity")
	assert.Equal(t, int64(-200), msg.ChatID)
}

func TestConvertPhotoPicksLargestSize(t *testing.T) {
	update := tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 100},
		Chat: privateChat(),
		Photo: []tgbotapi.PhotoSize{
			{FileID: "small", Width: 90},
			{FileID: "large", Width: 1280},
		},
		Caption: "look at this",
	}}

	msg, ok := testBot().convert(update)
	require.True(t, ok)
	assert.Equal(t, router.ContentPhoto, msg.Type)
	assert.Equal(t, "large", msg.FileID)
	assert.Equal(t, "look at this", msg.Caption)
}

func TestConvertVoice(t *testing.T) {
	update := tgbotapi.Update{Message: &tgbotapi.Message{
		From:  &tgbotapi.User{ID: 100},
		Chat:  privateChat(),
		Voice: &tgbotapi.Voice{FileID: "v9"},
	}}

	msg, ok := testBot().convert(update)
	require.True(t, ok)
	assert.Equal(t, router.ContentVoice, msg.Type)
	assert.Equal(t, "v9", msg.FileID)
	assert.Equal(t, "voice.ogg", msg.FileName)
}

func TestConvertDocument(t *testing.T) {
	update := tgbotapi.Update{Message: &tgbotapi.Message{
		From:     &tgbotapi.User{ID: 100},
		Chat:     privateChat(),
		Document: &tgbotapi.Document{FileID: "d4", FileName: "check.jpg"},
	}}

	msg, ok := testBot().convert(update)
	require.True(t, ok)
	assert.Equal(t, router.ContentDocument, msg.Type)
	assert.Equal(t, "check.jpg", msg.FileName)
}

func TestConvertDropsEmptyUpdates(t *testing.T) {
	_, ok := testBot().convert(tgbotapi.Update{})
	assert.False(t, ok)

	_, ok = testBot().convert(tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 100},
		Chat: privateChat(),
		Text: "   ",
	}})
	assert.False(t, ok)
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short"))

	long := strings.Repeat("я", maxMessageLength+10)
	clipped := clip(long)
	assert.Equal(t, maxMessageLength, len([]rune(clipped)))
}
