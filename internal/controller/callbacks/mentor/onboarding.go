package mentor

import (
	"context"

	"github.com/Freeeeeet/coaching_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/coaching_bot/internal/controller/callbacks/common"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleBecomeMentorConfirm обрабатывает подтверждение стать ментором
func HandleBecomeMentorConfirm(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	hc := common.NewHandlerContext(ctx, b, callback, h)

	user, err := h.UserService.MakeMentor(ctx, hc.TelegramID)
	if err != nil {
		common.HandleError(hc, err, "make mentor")
		return
	}

	h.Logger.Info("Mentor onboarded", zap.Int64("user_id", user.ID))

	text := "🎓 Поздравляем! Теперь вы ментор!\n\n" +
		"Ученики смогут выбрать вас в /mentors и прислать работу на разбор.\n" +
		"Новые запросы придут сюда, а все сессии есть в /sessions."

	if err := hc.ShowScreen(text, nil); err != nil {
		common.HandleError(hc, err, "show mentor welcome")
		return
	}
	hc.Answer("✅ Вы стали ментором!")
}

// HandleBecomeMentorCancel обрабатывает отмену
func HandleBecomeMentorCancel(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	hc := common.NewHandlerContext(ctx, b, callback, h)

	if err := hc.DeleteMessage(); err != nil {
		h.Logger.Debug("Failed to delete message", zap.Error(err))
	}
	hc.Answer("Отменено")
}
