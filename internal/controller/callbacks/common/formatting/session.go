package formatting

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Freeeeeet/coaching_bot/internal/model"
)

const previewLength = 40

// ShortID короткий идентификатор сессии для списков
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// Preview обрезает текст до n символов
func Preview(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n]) + "…"
}

// RoleLabel роль пользователя в сессии
func RoleLabel(session *model.CoachingSession, userID string) string {
	if session.MentorID == userID {
		return "ментор"
	}
	return "ученик"
}

// FormatSessionButton текст кнопки сессии в списке
func FormatSessionButton(session *model.CoachingSession) string {
	display := GetSessionStatusDisplay(session.Status)
	return fmt.Sprintf("%s %s · %s", display.Emoji, FormatDate(session.CreatedAt), Preview(session.InitialQuestion, 24))
}

// FormatSessionDetails полное описание сессии для участника
func FormatSessionDetails(session *model.CoachingSession, viewerID string, now time.Time) string {
	display := GetSessionStatusDisplay(session.Status)

	var sb strings.Builder
	fmt.Fprintf(&sb, "🎨 <b>Сессия #%s</b>\n", ShortID(session.ID))
	fmt.Fprintf(&sb, "👤 Вы: %s\n", RoleLabel(session, viewerID))
	fmt.Fprintf(&sb, "📊 Статус: %s %s\n", display.Emoji, display.Text)
	fmt.Fprintf(&sb, "📅 Создана: %s\n", FormatDateTime(session.CreatedAt))

	if session.Status.IsTerminal() {
		if reason := CloseReasonText(session.CloseReason); reason != "" {
			fmt.Fprintf(&sb, "🏁 Итог: %s\n", reason)
		}
	} else {
		fmt.Fprintf(&sb, "⏰ Дедлайн: %s (осталось %s)\n",
			FormatDateTime(session.DeadlineAt), FormatRemaining(session.DeadlineAt.Sub(now)))
	}

	fmt.Fprintf(&sb, "\n❔ <b>Вопрос:</b>\n%s\n", html.EscapeString(session.InitialQuestion))

	if session.Feedback != nil {
		fmt.Fprintf(&sb, "\n💬 <b>Разбор ментора:</b>\n%s\n", html.EscapeString(session.Feedback.Comment))
	}

	if session.FollowUp != nil {
		fmt.Fprintf(&sb, "\n❓ <b>Уточняющий вопрос:</b>\n%s\n", html.EscapeString(session.FollowUp.Question))
		if session.FollowUp.IsAnswered() {
			fmt.Fprintf(&sb, "\n🗨 <b>Ответ:</b>\n%s\n", html.EscapeString(session.FollowUp.Answer))
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

// FormatTransaction строка истории операций
func FormatTransaction(txn *model.CreditTransaction) string {
	display := GetTransactionTypeDisplay(txn.Type)
	line := fmt.Sprintf("%s %s %s · %s", display.Emoji, FormatCreditsDelta(txn.Amount), display.Text, FormatDateTime(txn.CreatedAt))
	if txn.SessionID != nil {
		line += fmt.Sprintf(" · #%s", ShortID(*txn.SessionID))
	}
	return line
}
