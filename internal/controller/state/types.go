package state

// UserState представляет текущее состояние пользователя в диалоге
type UserState string

const (
	StateNone UserState = "" // Нет активного состояния

	// Студент выбрал ментора и должен прислать фото работы с вопросом
	StateAwaitingSessionPhoto UserState = "awaiting_session_photo"

	// Студент пишет уточняющий вопрос
	StateAwaitingFollowUpQuestion UserState = "awaiting_followup_question"

	// Ментор присылает фото с разбором и комментарий
	StateAwaitingFeedbackPhoto UserState = "awaiting_feedback_photo"

	// Ментор отвечает на уточняющий вопрос
	StateAwaitingFollowUpAnswer UserState = "awaiting_followup_answer"
)

// Ключи временных данных диалога
const (
	DataMentorID  = "mentor_id"
	DataSessionID = "session_id"
)

// UserData хранит временные данные пользователя во время диалога
type UserData struct {
	State UserState
	Data  map[string]interface{}
}
