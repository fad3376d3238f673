package callbacks

import (
	"context"
	"strings"

	"github.com/Freeeeeet/coaching_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/coaching_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/coaching_bot/internal/controller/callbacks/mentor"
	"github.com/Freeeeeet/coaching_bot/internal/controller/callbacks/student"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Route распределяет callback query по соответствующим обработчикам
func Route(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	data := callback.Data

	h.Logger.Info("Routing callback",
		zap.String("data", data),
		zap.Int64("user_id", callback.From.ID))

	switch {
	case data == callbacktypes.Noop:
		common.AnswerCallback(ctx, b, callback.ID, "")
	case data == callbacktypes.BackToMain:
		common.HandleBackToMain(ctx, b, callback, h)

	// ===== Ментор: онбординг =====
	case data == callbacktypes.BecomeMentor:
		mentor.HandleBecomeMentorConfirm(ctx, b, callback, h)
	case data == callbacktypes.CancelBecomeMentor:
		mentor.HandleBecomeMentorCancel(ctx, b, callback, h)

	// ===== Студент: запрос разбора =====
	case strings.HasPrefix(data, callbacktypes.RequestSession):
		student.HandleRequestSession(ctx, b, callback, h)
	case strings.HasPrefix(data, callbacktypes.FollowUp):
		student.HandleFollowUpStart(ctx, b, callback, h)

	// ===== Сессии =====
	case strings.HasPrefix(data, callbacktypes.SessionsPage):
		student.HandleSessionsPage(ctx, b, callback, h)
	case strings.HasPrefix(data, callbacktypes.ViewSession):
		student.HandleViewSession(ctx, b, callback, h)

	// ===== Ментор: ответы =====
	case strings.HasPrefix(data, callbacktypes.Feedback):
		mentor.HandleFeedbackStart(ctx, b, callback, h)
	case strings.HasPrefix(data, callbacktypes.Reply):
		mentor.HandleReplyStart(ctx, b, callback, h)

	default:
		h.Logger.Warn("Unknown callback", zap.String("data", data))
		common.AnswerCallback(ctx, b, callback.ID, "❓ Неизвестная команда")
	}
}
