package callbacktypes

// Форматы callback data
const (
	Noop       = "noop"
	BackToMain = "back_to_main"

	BecomeMentor       = "become_mentor"
	CancelBecomeMentor = "cancel_become_mentor"

	RequestSession = "request_session:" // request_session:<mentor user id>
	SessionsPage   = "sessions_page:"   // sessions_page:<page>
	ViewSession    = "session:"         // session:<session id>
	Feedback       = "feedback:"        // feedback:<session id>
	FollowUp       = "followup:"        // followup:<session id>
	Reply          = "reply:"           // reply:<session id>
)
