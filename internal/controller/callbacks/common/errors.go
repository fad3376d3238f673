package common

import (
	"errors"
	"fmt"

	"github.com/Freeeeeet/coaching_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/coaching_bot/internal/service"
)

// Общие ошибки для обработчиков
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrNotAMentor     = errors.New("user is not a mentor")
	ErrNotParticipant = errors.New("user is not a session participant")
	ErrNoMessage      = errors.New("no message in callback")
	ErrInvalidFormat  = errors.New("invalid callback format")
)

// ErrorMessage возвращает пользовательское сообщение для ошибки
func ErrorMessage(err error) string {
	var insufficient *service.InsufficientCreditsError
	var precondition *service.PreconditionError

	switch {
	case errors.As(err, &insufficient):
		return fmt.Sprintf("💸 Недостаточно кредитов: на балансе %s, нужно %s",
			formatting.FormatCredits(insufficient.Balance),
			formatting.FormatCredits(insufficient.Cost))
	case errors.Is(err, service.ErrInsufficientCredits):
		return "💸 Недостаточно кредитов"
	case errors.As(err, &precondition):
		display := formatting.GetSessionStatusDisplay(precondition.Actual)
		return fmt.Sprintf("⚠️ Действие недоступно: сессия сейчас в статусе «%s»", display.Text)
	case errors.Is(err, service.ErrInvalidFollowUpState):
		return "⚠️ Уточняющий вопрос уже задан"
	case errors.Is(err, service.ErrSessionNotFound):
		return "❌ Сессия не найдена"
	case errors.Is(err, service.ErrInvalidInput):
		return "❌ Неверные данные: " + invalidInputHint(err)
	case errors.Is(err, ErrUserNotFound), errors.Is(err, service.ErrUserNotFound):
		return "❌ Пользователь не найден. Используйте /start"
	case errors.Is(err, ErrNotAMentor):
		return "❌ Эта функция доступна только менторам"
	case errors.Is(err, ErrNotParticipant):
		return "❌ У вас нет доступа к этой сессии"
	case errors.Is(err, ErrNoMessage):
		return "❌ Ошибка обработки сообщения"
	case errors.Is(err, ErrInvalidFormat):
		return "❌ Неверный формат данных"
	default:
		return "❌ Произошла ошибка. Попробуйте позже."
	}
}

func invalidInputHint(err error) string {
	var field *service.FieldError
	if !errors.As(err, &field) {
		return "проверьте ввод"
	}

	switch field.Field {
	case "initial_question":
		return fmt.Sprintf("вопрос должен быть от %d до %d символов", service.MinQuestionLength, service.MaxQuestionLength)
	case "follow_up_question":
		return fmt.Sprintf("вопрос должен быть от %d до %d символов", service.MinFollowUpQuestionLength, service.MaxFollowUpQuestionLength)
	case "answer":
		return fmt.Sprintf("ответ должен быть не короче %d символов", service.MinAnswerLength)
	case "comment":
		return fmt.Sprintf("комментарий должен быть от %d до %d символов", service.MinCommentLength, service.MaxCommentLength)
	case "original_image_url", "feedback_image_url":
		return "нужно прикрепить фото"
	case "mentor_id":
		return "нельзя запросить разбор у самого себя"
	default:
		return "проверьте ввод"
	}
}
