package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/coaching_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/coaching_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/coaching_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/coaching_bot/internal/model"
	"github.com/go-telegram/bot/models"
)

// SessionsPerPage количество сессий на одной странице списка
const SessionsPerPage = 5

// HistoryLimit сколько последних операций показывать в /history
const HistoryLimit = 15

// MainMenuText текст главного меню
func MainMenuText(user *model.User) string {
	text := "📋 Главное меню\n\n" +
		"/mentors - Выбрать ментора и запросить разбор\n" +
		"/sessions - Мои сессии\n" +
		"/balance - Баланс кредитов\n" +
		"/history - История операций\n" +
		"/help - Справка\n"

	if user != nil && !user.IsMentor {
		text += "\n/becomementor - Стать ментором"
	}
	return text
}

// BuildSessionsScreen формирует страницу списка сессий пользователя
func BuildSessionsScreen(sessions []*model.CoachingSession, page int) (string, *models.InlineKeyboardMarkup) {
	if len(sessions) == 0 {
		return "📭 У вас пока нет сессий.\n\nЗапросите разбор у ментора: /mentors", nil
	}

	totalPages := (len(sessions) + SessionsPerPage - 1) / SessionsPerPage
	if page < 0 {
		page = 0
	}
	if page >= totalPages {
		page = totalPages - 1
	}

	start := page * SessionsPerPage
	end := min(start+SessionsPerPage, len(sessions))

	b := keyboard.NewBuilder()
	for _, session := range sessions[start:end] {
		b.Row(keyboard.Button(formatting.FormatSessionButton(session), callbacktypes.ViewSession+session.ID))
	}
	b.AddPagination(callbacktypes.SessionsPage, page, totalPages)
	b.Row(keyboard.BackToMainButton())

	text := fmt.Sprintf("🗂 <b>Мои сессии</b>: %d %s\n\nВыберите сессию:",
		len(sessions), formatting.PluralizeSessions(len(sessions)))

	return text, b.Build()
}

// BuildSessionScreen формирует экран сессии с доступными действиями
func BuildSessionScreen(session *model.CoachingSession, user *model.User, now time.Time) (string, *models.InlineKeyboardMarkup) {
	userID := user.SessionUserID()
	return formatting.FormatSessionDetails(session, userID, now), keyboard.SessionActions(session, userID)
}

// BuildHistoryScreen формирует текст баланса и последних операций
func BuildHistoryScreen(balance int64, history []*model.CreditTransaction) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "💰 Баланс: <b>%s</b>\n\n", formatting.FormatCredits(balance))

	if len(history) == 0 {
		sb.WriteString("📭 Операций пока нет")
		return sb.String()
	}

	sb.WriteString("🧾 <b>Последние операции:</b>\n")
	for i, txn := range history {
		if i == HistoryLimit {
			fmt.Fprintf(&sb, "… и ещё %d", len(history)-HistoryLimit)
			break
		}
		sb.WriteString(formatting.FormatTransaction(txn))
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}
