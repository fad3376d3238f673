package keyboard

import (
	"github.com/Freeeeeet/coaching_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/coaching_bot/internal/model"
	"github.com/go-telegram/bot/models"
)

// BackToMainButton создаёт кнопку "В главное меню"
func BackToMainButton() models.InlineKeyboardButton {
	return Button("🏠 В главное меню", callbacktypes.BackToMain)
}

// BackToSessionsButton создаёт кнопку возврата к списку сессий
func BackToSessionsButton() models.InlineKeyboardButton {
	return Button("⬅️ К моим сессиям", callbacktypes.SessionsPage+"0")
}

// ConfirmCancelButtons создаёт ряд с кнопками Подтвердить/Отмена
func ConfirmCancelButtons(confirmCallback, cancelCallback string) []models.InlineKeyboardButton {
	return []models.InlineKeyboardButton{
		Button("✅ Подтвердить", confirmCallback),
		Button("❌ Отмена", cancelCallback),
	}
}

// SessionActions кнопки действий, доступных пользователю в текущем статусе сессии
func SessionActions(session *model.CoachingSession, userID string) *models.InlineKeyboardMarkup {
	b := NewBuilder()

	isMentor := session.MentorID == userID
	isStudent := session.StudentID == userID

	switch {
	case isMentor && session.Status == model.SessionStatusPending:
		b.Row(Button("✍️ Дать разбор", callbacktypes.Feedback+session.ID))
	case isStudent && session.Status == model.SessionStatusAnswered:
		b.Row(Button("❓ Задать уточняющий вопрос", callbacktypes.FollowUp+session.ID))
	case isMentor && session.Status == model.SessionStatusFollowupPending:
		b.Row(Button("💬 Ответить на вопрос", callbacktypes.Reply+session.ID))
	}

	b.Row(Button("🔄 Обновить", callbacktypes.ViewSession+session.ID))
	b.Row(BackToSessionsButton())

	return b.Build()
}

// MentorList кнопки выбора ментора
func MentorList(mentors []*model.User) *models.InlineKeyboardMarkup {
	b := NewBuilder()
	for _, mentor := range mentors {
		b.Row(Button("🎓 "+mentor.DisplayName(), callbacktypes.RequestSession+mentor.SessionUserID()))
	}
	return b.Build()
}
