package formatting

import "github.com/Freeeeeet/coaching_bot/internal/model"

// StatusDisplay представляет отображение статуса
type StatusDisplay struct {
	Emoji string
	Text  string
}

// GetSessionStatusDisplay возвращает emoji и текст для статуса сессии
func GetSessionStatusDisplay(status model.SessionStatus) StatusDisplay {
	displays := map[model.SessionStatus]StatusDisplay{
		model.SessionStatusPending:         {"⏳", "Ждёт разбора"},
		model.SessionStatusAnswered:        {"✅", "Разбор получен"},
		model.SessionStatusFollowupPending: {"❓", "Ждёт ответа на вопрос"},
		model.SessionStatusCompleted:       {"✔️", "Завершена"},
		model.SessionStatusRefunded:        {"💸", "Кредиты возвращены"},
		model.SessionStatusClosed:          {"⚫️", "Закрыта"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return StatusDisplay{"❓", "Неизвестно"}
}

// CloseReasonText описывает, чем закончилась сессия
func CloseReasonText(reason model.CloseReason) string {
	switch reason {
	case model.CloseReasonCompleted:
		return "ментор ответил на уточняющий вопрос"
	case model.CloseReasonMentorTimeout:
		return "ментор не дал разбор вовремя"
	case model.CloseReasonFollowupTimeout:
		return "ментор не ответил на уточняющий вопрос вовремя"
	case model.CloseReasonFollowupWindowExpired:
		return "время на уточняющий вопрос истекло"
	default:
		return ""
	}
}

// GetTransactionTypeDisplay возвращает emoji и текст для типа операции
func GetTransactionTypeDisplay(txType model.TransactionType) StatusDisplay {
	displays := map[model.TransactionType]StatusDisplay{
		model.TransactionTypeUse:    {"🎨", "Оплата сессии"},
		model.TransactionTypeRefund: {"↩️", "Возврат"},
		model.TransactionTypeEarn:   {"🎁", "Начисление"},
	}

	if display, ok := displays[txType]; ok {
		return display
	}

	return StatusDisplay{"❓", "Операция"}
}
