package handlers

import (
	"github.com/Freeeeeet/coaching_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/coaching_bot/internal/controller/state"
	"github.com/Freeeeeet/coaching_bot/internal/service"
	"go.uber.org/zap"
)

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	userService     *service.UserService
	coachingService *service.CoachingService
	stateManager    *state.Manager
	notifier        callbacktypes.Notifier
	clock           service.Clock
	sessionCost     int64
	logger          *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(
	userService *service.UserService,
	coachingService *service.CoachingService,
	stateManager *state.Manager,
	notifier callbacktypes.Notifier,
	clock service.Clock,
	sessionCost int64,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		userService:     userService,
		coachingService: coachingService,
		stateManager:    stateManager,
		notifier:        notifier,
		clock:           clock,
		sessionCost:     sessionCost,
		logger:          logger,
	}
}
