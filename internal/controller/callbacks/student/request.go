package student

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
	"go.uber.org/zap"
)

// HandleRequestSession начинает запрос разбора у выбранного ментора
func HandleRequestSession(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithUser(ctx, b, callback, h, func(hc *common.HandlerContext) {
		mentorID, err := common.ParseValueFromCallback(callback.Data, callbacktypes.RequestSession)
		if err != nil {
			common.HandleError(hc, err, "parse mentor id")
			return
		}

		mentorUser, err := h.UserService.GetBySessionUserID(ctx, mentorID)
		if err != nil {
			common.HandleError(hc, err, "get mentor")
			return
		}
		if mentorUser == nil || !mentorUser.IsMentor {
			hc.AnswerAlert("❌ Ментор не найден")
			return
		}
		if mentorUser.ID == hc.User.ID {
			hc.AnswerAlert("❌ Нельзя запросить разбор у самого себя")
			return
		}

		balance, err := h.CoachingService.GetCreditBalance(ctx, hc.User.SessionUserID())
		if err != nil {
			common.HandleError(hc, err, "get balance")
			return
		}
		if balance < h.SessionCost {
			hc.AnswerAlert(common.ErrorMessage(&service.InsufficientCreditsError{Balance: balance, Cost: h.SessionCost}))
			return
		}

		hc.StartDialog(callbacktypes.UserState(state.StateAwaitingSessionPhoto), state.DataMentorID, mentorID)

		h.Logger.Info("Session request started",
			zap.Int64("telegram_id", hc.TelegramID),
			zap.String("mentor_id", mentorID))

		text := fmt.Sprintf(
			"🎓 Ментор: <b>%s</b>\n"+
				"💰 Стоимость: %s (на балансе %s)\n\n"+
				"📸 Отправьте фото работы одним сообщением, а в подписи к фото напишите вопрос (от %d до %d символов).\n\n"+
				"Если ментор не ответит за %s, кредиты вернутся.\n\n"+
				"Для отмены используйте /cancel",
			html.EscapeString(mentorUser.DisplayName()),
			formatting.FormatCredits(h.SessionCost),
			formatting.FormatCredits(balance),
			service.MinQuestionLength, service.MaxQuestionLength,
			formatting.FormatWindow(h.CoachingService.Deadlines().MentorResponse),
		)

		if err := hc.SendMessage(text, nil); err != nil {
			common.HandleError(hc, err, "send request instructions")
			return
		}
		hc.Answer("")
	})
}

// HandleFollowUpStart начинает ввод уточняющего вопроса
func HandleFollowUpStart(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithSession(ctx, b, callback, h, callbacktypes.FollowUp, func(hc *common.HandlerContext, session *model.CoachingSession) {
		if session.StudentID != hc.User.SessionUserID() {
			hc.AnswerAlert(common.ErrorMessage(common.ErrNotParticipant))
			return
		}
		if session.Status != model.SessionStatusAnswered {
			hc.AnswerAlert(common.ErrorMessage(&service.PreconditionError{
				Operation: "submit follow-up",
				Expected:  model.SessionStatusAnswered,
				Actual:    session.Status,
			}))
			return
		}

		hc.StartDialog(callbacktypes.UserState(state.StateAwaitingFollowUpQuestion), state.DataSessionID, session.ID)

		text := fmt.Sprintf(
			"❓ Напишите уточняющий вопрос по сессии #%s (от %d до %d символов).\n\n"+
				"⏰ Осталось: %s\n\n"+
				"Для отмены используйте /cancel",
			formatting.ShortID(session.ID),
			service.MinFollowUpQuestionLength, service.MaxFollowUpQuestionLength,
			formatting.FormatRemaining(session.DeadlineAt.Sub(h.Clock.Now())),
		)

		if err := hc.SendMessage(text, nil); err != nil {
			common.HandleError(hc, err, "send follow-up instructions")
			return
		}
		hc.Answer("")
	})
}
