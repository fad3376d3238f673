package callbacktypes

import (
	"context"

	"github.com/Freeeeeet/coaching_bot/internal/model"
	"github.com/Freeeeeet/coaching_bot/internal/service"
	"go.uber.org/zap"
)

// UserState представляет текущее состояние пользователя в диалоге
type UserState string

// StateManager интерфейс для управления состоянием пользователей
type StateManager interface {
	ClearState(telegramID int64)
	GetState(telegramID int64) UserState
	SetState(telegramID int64, state UserState)
	StartDialog(telegramID int64, state UserState, key string, value interface{})
	SetData(telegramID int64, key string, value interface{})
	GetData(telegramID int64, key string) (interface{}, bool)
}

// Notifier уведомляет второго участника сессии о действиях
type Notifier interface {
	NotifyNewRequest(ctx context.Context, session *model.CoachingSession) error
	NotifyFeedback(ctx context.Context, session *model.CoachingSession) error
	NotifyFollowUp(ctx context.Context, session *model.CoachingSession) error
	NotifyFollowUpAnswer(ctx context.Context, session *model.CoachingSession) error
}

// Handler содержит общие зависимости для всех callback handlers
type Handler struct {
	UserService     *service.UserService
	CoachingService *service.CoachingService
	StateManager    StateManager
	Notifier        Notifier
	Clock           service.Clock
	SessionCost     int64
	Logger          *zap.Logger
}
