package service

import (
	"time"

	"github.com/Freeeeeet/coaching_bot/internal/model"
)

// Deadlines сроки для каждого незавершённого статуса
type Deadlines struct {
	MentorResponse time.Duration // pending: от создания до первого ответа ментора
	FollowUpWindow time.Duration // answered: сколько студент может задать уточняющий вопрос
	FollowUpReply  time.Duration // followup_pending: от вопроса до ответа ментора
}

// DefaultDeadlines 24ч на ответ, 48ч на уточняющий вопрос, 24ч на ответ на него
func DefaultDeadlines() Deadlines {
	return Deadlines{
		MentorResponse: 24 * time.Hour,
		FollowUpWindow: 48 * time.Hour,
		FollowUpReply:  24 * time.Hour,
	}
}

// Outcome результат проверки дедлайна
type Outcome struct {
	Session      *model.CoachingSession
	Transitioned bool
	From         model.SessionStatus
	RefundOwed   bool
}

// Evaluate применяет переход по истёкшему дедлайну к копии сессии.
// Не делает ввода-вывода и не возвращает ошибок. Повторный вызов с тем же
// или более поздним now ничего не меняет.
func Evaluate(session *model.CoachingSession, now time.Time) Outcome {
	next := session.Clone()
	outcome := Outcome{Session: next, From: session.Status}

	if session.Status.IsTerminal() || !now.After(session.DeadlineAt) {
		return outcome
	}

	switch session.Status {
	case model.SessionStatusPending:
		// Ментор не ответил вовремя
		next.Status = model.SessionStatusRefunded
		next.CloseReason = model.CloseReasonMentorTimeout
		outcome.RefundOwed = true
	case model.SessionStatusAnswered:
		// Студент не задал уточняющий вопрос, работа ментора уже сделана
		next.Status = model.SessionStatusClosed
		next.CloseReason = model.CloseReasonFollowupWindowExpired
	case model.SessionStatusFollowupPending:
		// Ментор не ответил на уточняющий вопрос
		next.Status = model.SessionStatusRefunded
		next.CloseReason = model.CloseReasonFollowupTimeout
		outcome.RefundOwed = true
	default:
		return outcome
	}

	closedAt := now
	next.ClosedAt = &closedAt
	outcome.Transitioned = true
	return outcome
}
