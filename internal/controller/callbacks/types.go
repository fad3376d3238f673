package callbacks

import (
	"context"

	"github.com/Freeeeeet/coaching_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/coaching_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Handler обертка для callbacktypes.Handler с методами
type Handler struct {
	*callbacktypes.Handler
}

// NewHandler создаёт новый обработчик callbacks с зависимостями
func NewHandler(
	userService *service.UserService,
	coachingService *service.CoachingService,
	stateManager callbacktypes.StateManager,
	notifier callbacktypes.Notifier,
	clock service.Clock,
	sessionCost int64,
	logger *zap.Logger,
) *Handler {
	inner := &callbacktypes.Handler{
		UserService:     userService,
		CoachingService: coachingService,
		StateManager:    stateManager,
		Notifier:        notifier,
		Clock:           clock,
		SessionCost:     sessionCost,
		Logger:          logger,
	}
	return &Handler{Handler: inner}
}

// HandleCallbackQuery - главный обработчик callback queries
func (h *Handler) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}

	Route(ctx, b, update.CallbackQuery, h.Handler)
}
