package common

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
)

// AnswerCallback отвечает на callback query (без alert)
func AnswerCallback(ctx context.Context, b *bot.Bot, callbackID string, text string) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       false,
	})
}

// AnswerCallbackAlert отвечает на callback query с alert (всплывающее окно)
func AnswerCallbackAlert(ctx context.Context, b *bot.Bot, callbackID string, text string) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       true,
	})
}

// GetMessageFromCallback извлекает сообщение из callback query
func GetMessageFromCallback(callback *models.CallbackQuery) *models.Message {
	if callback.Message.Message != nil {
		return callback.Message.Message
	}
	return nil
}

// ParseValueFromCallback извлекает значение после префикса
// Например: "session:abc" -> "abc"
func ParseValueFromCallback(data, prefix string) (string, error) {
	value, ok := strings.CutPrefix(data, prefix)
	if !ok || value == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, data)
	}
	return value, nil
}

// ParseSessionIDFromCallback извлекает UUID сессии из callback data
func ParseSessionIDFromCallback(data, prefix string) (string, error) {
	value, err := ParseValueFromCallback(data, prefix)
	if err != nil {
		return "", err
	}

	id, err := uuid.Parse(value)
	if err != nil {
		return "", fmt.Errorf("%w: session id %q", ErrInvalidFormat, value)
	}
	return id.String(), nil
}

// IsMessageNotModifiedError ошибка Telegram при редактировании сообщения без изменений
func IsMessageNotModifiedError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}

// PhotoFileID возвращает file_id самого большого варианта фото
func PhotoFileID(msg *models.Message) string {
	if msg == nil || len(msg.Photo) == 0 {
		return ""
	}
	return msg.Photo[len(msg.Photo)-1].FileID
}
