package notify

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"ai-fortune-report/internal/domain/ports/adapter"
)

var _ adapter.AdminNotifier = (*TelegramNotifier)(nil)

// TelegramNotifier pushes operational alerts to the configured admin chats.
type TelegramNotifier struct {
	bot     *tgbotapi.BotAPI
	chatIDs []int64
	log     *zerolog.Logger
}

func NewTelegramNotifier(token string, chatIDs []int64, log *zerolog.Logger) (*TelegramNotifier, error) {
	if token == "" {
		return nil, errors.New("telegram token empty")
	}
	if len(chatIDs) == 0 {
		return nil, errors.New("no admin chat ids configured")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &TelegramNotifier{bot: bot, chatIDs: chatIDs, log: log}, nil
}

func (t *TelegramNotifier) Notify(ctx context.Context, text string) error {
	var lastErr error
	for _, id := range t.chatIDs {
		msg := tgbotapi.NewMessage(id, text)
		if _, err := t.bot.Send(msg); err != nil {
			t.log.Warn().Err(err).Int64("chat_id", id).Msg("admin notify failed")
			lastErr = err
		}
	}
	return lastErr
}
