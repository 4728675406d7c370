// Package telegram connects the conversation machine to the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/creastat/contractbot/conversation"
)

// API is the subset of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// NewAPI authenticates against the Bot API with token.
func NewAPI(token string, debug bool) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", err)
	}
	api.Debug = debug
	return api, nil
}

// Messenger sends replies to chats and contracts to the admin chat.
type Messenger struct {
	api         API
	adminChatID int64
	logger      *zap.Logger
}

var _ conversation.Messenger = (*Messenger)(nil)

// NewMessenger creates a Messenger. Session IDs are chat IDs in decimal.
func NewMessenger(api API, adminChatID int64, logger *zap.Logger) *Messenger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Messenger{api: api, adminChatID: adminChatID, logger: logger}
}

// Reply implements conversation.Messenger.
func (m *Messenger) Reply(_ context.Context, sessionID string, r conversation.Reply) error {
	chatID, err := ChatID(sessionID)
	if err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, r.Text)
	if r.Markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	switch {
	case len(r.Keyboard) > 0:
		row := make([]tgbotapi.KeyboardButton, 0, len(r.Keyboard))
		for _, label := range r.Keyboard {
			row = append(row, tgbotapi.NewKeyboardButton(label))
		}
		kb := tgbotapi.NewReplyKeyboard(row)
		kb.OneTimeKeyboard = true
		kb.ResizeKeyboard = true
		msg.ReplyMarkup = kb
	case r.RemoveKeyboard:
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	}

	if _, err := m.api.Send(msg); err != nil {
		return fmt.Errorf("telegram: send message to %d: %w", chatID, err)
	}
	return nil
}

// SendDocument implements conversation.Messenger. The file is uploaded to
// the admin chat.
func (m *Messenger) SendDocument(_ context.Context, path, caption string) error {
	doc := tgbotapi.NewDocument(m.adminChatID, tgbotapi.FilePath(path))
	doc.Caption = caption

	if _, err := m.api.Send(doc); err != nil {
		return fmt.Errorf("telegram: send document: %w", err)
	}
	m.logger.Debug("document sent", zap.String("path", path), zap.Int64("chat", m.adminChatID))
	return nil
}

// SessionID is the session key for a chat.
func SessionID(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

// ChatID parses a session key back into a chat ID.
func ChatID(sessionID string) (int64, error) {
	id, err := strconv.ParseInt(sessionID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("telegram: invalid session id %q: %w", sessionID, err)
	}
	return id, nil
}
