package common

import (
	"context"

	"github.com/Freeeeeet/coaching_bot/internal/controller/callbacks/callbacktypes"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// HandleBackToMain возвращает пользователя к главному меню
func HandleBackToMain(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	WithUser(ctx, b, callback, h, func(hc *HandlerContext) {
		hc.ClearState()

		if err := hc.ShowScreen(MainMenuText(hc.User), nil); err != nil {
			HandleError(hc, err, "back to main")
			return
		}
		hc.Answer("")
	})
}
