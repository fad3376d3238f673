package common

import (
	"context"

	"github.com/Freeeeeet/coaching_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/coaching_bot/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// WithUser создаёт HandlerContext и загружает пользователя.
// При ошибке сам отвечает пользователю
func WithUser(
	ctx context.Context,
	b *bot.Bot,
	callback *models.CallbackQuery,
	h *callbacktypes.Handler,
	handler func(*HandlerContext),
) {
	hc := NewHandlerContext(ctx, b, callback, h)

	if err := hc.LoadUser(); err != nil {
		h.Logger.Error("Failed to load user",
			zap.Int64("telegram_id", hc.TelegramID),
			zap.Error(err))
		hc.AnswerAlert(ErrorMessage(err))
		return
	}

	handler(hc)
}

// WithSession разбирает ID сессии из callback data и проверяет доступ к ней.
// При успехе передаёт HandlerContext и уже пересчитанную сессию в handler
func WithSession(
	ctx context.Context,
	b *bot.Bot,
	callback *models.CallbackQuery,
	h *callbacktypes.Handler,
	prefix string,
	handler func(*HandlerContext, *model.CoachingSession),
) {
	hc := NewHandlerContext(ctx, b, callback, h)

	sessionID, err := ParseSessionIDFromCallback(callback.Data, prefix)
	if err != nil {
		h.Logger.Warn("Bad session callback", zap.String("data", callback.Data), zap.Error(err))
		hc.AnswerAlert(ErrorMessage(err))
		return
	}

	session, err := hc.RequireParticipant(sessionID)
	if err != nil {
		h.Logger.Warn("Session access check failed",
			zap.Int64("telegram_id", hc.TelegramID),
			zap.String("session_id", sessionID),
			zap.Error(err))
		hc.AnswerAlert(ErrorMessage(err))
		return
	}

	handler(hc, session)
}

// HandleError обрабатывает ошибку и отправляет ответ пользователю
func HandleError(hc *HandlerContext, err error, operation string) {
	hc.Handler.Logger.Error("Operation failed",
		zap.String("operation", operation),
		zap.Int64("telegram_id", hc.TelegramID),
		zap.Error(err))
	hc.AnswerAlert(ErrorMessage(err))
}
