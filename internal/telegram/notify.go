package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notify sends a one-off message without requiring a running bot instance.
// A failed send is returned so callers can surface it; the webhook gateway
// relies on that to answer the delivery with an error.
func Notify(token string, chatID int64, text string) error {
	return notify(token, chatID, text, tgbotapi.APIEndpoint)
}

func notify(token string, chatID int64, text, endpoint string) error {
	token = strings.TrimSpace(token)
	if token == "" || chatID == 0 || strings.TrimSpace(text) == "" {
		return fmt.Errorf("notify: token, chat id and text are required")
	}

	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return fmt.Errorf("create notify client: %w", err)
	}
	if _, err := bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("send notification to chat %d: %w", chatID, err)
	}
	return nil
}
