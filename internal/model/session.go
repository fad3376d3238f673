package model

import "time"

type SessionStatus string

const (
	SessionStatusPending         SessionStatus = "pending"          // Ждёт первого ответа ментора
	SessionStatusAnswered        SessionStatus = "answered"         // Ментор ответил, можно задать уточняющий вопрос
	SessionStatusFollowupPending SessionStatus = "followup_pending" // Ждёт ответа ментора на уточняющий вопрос
	SessionStatusCompleted       SessionStatus = "completed"        // Завершена
	SessionStatusRefunded        SessionStatus = "refunded"         // Ментор не успел, кредиты возвращены
	SessionStatusClosed          SessionStatus = "closed"           // Студент не задал вопрос вовремя
)

// IsTerminal сообщает, что из статуса больше нет переходов
func (s SessionStatus) IsTerminal() bool {
	switch s {
	case SessionStatusCompleted, SessionStatusRefunded, SessionStatusClosed:
		return true
	}
	return false
}

// CloseReason описывает, каким путём сессия попала в терминальный статус
type CloseReason string

const (
	CloseReasonNone                  CloseReason = ""
	CloseReasonCompleted             CloseReason = "completed"
	CloseReasonMentorTimeout         CloseReason = "mentor_timeout"
	CloseReasonFollowupTimeout       CloseReason = "followup_timeout"
	CloseReasonFollowupWindowExpired CloseReason = "followup_window_expired"
)

type Feedback struct {
	FeedbackImageURL string `json:"feedback_image_url"`
	Comment          string `json:"comment"`
}

type FollowUp struct {
	Question   string     `json:"question"`
	QuestionAt time.Time  `json:"question_at"`
	Answer     string     `json:"answer,omitempty"`
	AnswerAt   *time.Time `json:"answer_at,omitempty"`
}

// IsAnswered возвращает true если ментор уже ответил на вопрос
func (f *FollowUp) IsAnswered() bool {
	return f.AnswerAt != nil
}

type CoachingSession struct {
	ID               string        `json:"id"`
	StudentID        string        `json:"student_id"`
	MentorID         string        `json:"mentor_id"`
	OriginalImageURL string        `json:"original_image_url"`
	InitialQuestion  string        `json:"initial_question"`
	Status           SessionStatus `json:"status"`
	CloseReason      CloseReason   `json:"close_reason,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	DeadlineAt       time.Time     `json:"deadline_at"` // Игнорируется в терминальных статусах
	AnsweredAt       *time.Time    `json:"answered_at,omitempty"`
	ClosedAt         *time.Time    `json:"closed_at,omitempty"`
	Feedback         *Feedback     `json:"feedback,omitempty"`
	FollowUp         *FollowUp     `json:"follow_up,omitempty"`
}

// Clone возвращает глубокую копию сессии
func (s *CoachingSession) Clone() *CoachingSession {
	if s == nil {
		return nil
	}

	c := *s
	if s.AnsweredAt != nil {
		t := *s.AnsweredAt
		c.AnsweredAt = &t
	}
	if s.ClosedAt != nil {
		t := *s.ClosedAt
		c.ClosedAt = &t
	}
	if s.Feedback != nil {
		f := *s.Feedback
		c.Feedback = &f
	}
	if s.FollowUp != nil {
		f := *s.FollowUp
		if s.FollowUp.AnswerAt != nil {
			t := *s.FollowUp.AnswerAt
			f.AnswerAt = &t
		}
		c.FollowUp = &f
	}
	return &c
}

// IsParticipant проверяет что пользователь студент или ментор сессии
func (s *CoachingSession) IsParticipant(userID string) bool {
	return s.StudentID == userID || s.MentorID == userID
}
