package mentor

import (
	"context"
	"fmt"
	"html"

	"github.com/Freeeeeet/coaching_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/coaching_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/coaching_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/coaching_bot/internal/controller/state"
	"github.com/Freeeeeet/coaching_bot/internal/model"
	"github.com/Freeeeeet/coaching_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// HandleFeedbackStart начинает отправку разбора по сессии
func HandleFeedbackStart(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithSession(ctx, b, callback, h, callbacktypes.Feedback, func(hc *common.HandlerContext, session *model.CoachingSession) {
		if !requireMentorStatus(hc, session, model.SessionStatusPending, "submit feedback") {
			return
		}

		hc.StartDialog(callbacktypes.UserState(state.StateAwaitingFeedbackPhoto), state.DataSessionID, session.ID)

		text := fmt.Sprintf(
			"✍️ Разбор по сессии #%s\n\n"+
				"📸 Отправьте фото с правками, а в подписи напишите комментарий (от %d до %d символов).\n\n"+
				"⏰ Осталось: %s\n\n"+
				"Для отмены используйте /cancel",
			formatting.ShortID(session.ID),
			service.MinCommentLength, service.MaxCommentLength,
			formatting.FormatRemaining(session.DeadlineAt.Sub(h.Clock.Now())),
		)

		if err := hc.SendMessage(text, nil); err != nil {
			common.HandleError(hc, err, "send feedback instructions")
			return
		}
		hc.Answer("")
	})
}

// HandleReplyStart начинает ответ на уточняющий вопрос
func HandleReplyStart(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithSession(ctx, b, callback, h, callbacktypes.Reply, func(hc *common.HandlerContext, session *model.CoachingSession) {
		if !requireMentorStatus(hc, session, model.SessionStatusFollowupPending, "reply to follow-up") {
			return
		}

		hc.StartDialog(callbacktypes.UserState(state.StateAwaitingFollowUpAnswer), state.DataSessionID, session.ID)

		question := ""
		if session.FollowUp != nil {
			question = session.FollowUp.Question
		}

		text := fmt.Sprintf(
			"💬 Вопрос ученика по сессии #%s:\n\n%s\n\n"+
				"Напишите ответ (не короче %d символов).\n\n"+
				"⏰ Осталось: %s\n\n"+
				"Для отмены используйте /cancel",
			formatting.ShortID(session.ID),
			html.EscapeString(question),
			service.MinAnswerLength,
			formatting.FormatRemaining(session.DeadlineAt.Sub(h.Clock.Now())),
		)

		if err := hc.SendMessage(text, nil); err != nil {
			common.HandleError(hc, err, "send reply instructions")
			return
		}
		hc.Answer("")
	})
}

func requireMentorStatus(hc *common.HandlerContext, session *model.CoachingSession, expected model.SessionStatus, operation string) bool {
	if session.MentorID != hc.User.SessionUserID() {
		hc.AnswerAlert(common.ErrorMessage(common.ErrNotParticipant))
		return false
	}
	if session.Status != expected {
		hc.AnswerAlert(common.ErrorMessage(&service.PreconditionError{
			Operation: operation,
			Expected:  expected,
			Actual:    session.Status,
		}))
		return false
	}
	return true
}
