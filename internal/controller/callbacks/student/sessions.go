package student

import (
	"context"
	"strconv"

	"github.com/Freeeeeet/coaching_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/coaching_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/coaching_bot/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// HandleSessionsPage показывает страницу списка сессий
func HandleSessionsPage(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithUser(ctx, b, callback, h, func(hc *common.HandlerContext) {
		raw, err := common.ParseValueFromCallback(callback.Data, callbacktypes.SessionsPage)
		if err != nil {
			common.HandleError(hc, err, "parse sessions page")
			return
		}
		page, err := strconv.Atoi(raw)
		if err != nil {
			common.HandleError(hc, common.ErrInvalidFormat, "parse sessions page")
			return
		}

		sessions, err := h.CoachingService.ListUserSessions(ctx, hc.User.SessionUserID())
		if err != nil {
			common.HandleError(hc, err, "list sessions")
			return
		}

		text, markup := common.BuildSessionsScreen(sessions, page)
		if err := hc.ShowScreen(text, markup); err != nil {
			common.HandleError(hc, err, "show sessions")
			return
		}
		hc.Answer("")
	})
}

// HandleViewSession показывает сессию с актуальным статусом
func HandleViewSession(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithSession(ctx, b, callback, h, callbacktypes.ViewSession, func(hc *common.HandlerContext, session *model.CoachingSession) {
		text, markup := common.BuildSessionScreen(session, hc.User, h.Clock.Now())
		if err := hc.ShowScreen(text, markup); err != nil {
			common.HandleError(hc, err, "show session")
			return
		}
		hc.Answer("")
	})
}
