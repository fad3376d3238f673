package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/Freeeeeet/coaching_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/coaching_bot/internal/controller/state"
	"github.com/Freeeeeet/coaching_bot/internal/model"
	"github.com/Freeeeeet/coaching_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleMessage обрабатывает текст и фото в зависимости от состояния диалога
func (h *Handlers) HandleMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	// Команды обрабатываются другими handlers
	if strings.HasPrefix(msg.Text, "/") {
		return
	}

	telegramID := msg.From.ID
	currentState := h.stateManager.GetState(telegramID)

	h.logger.Debug("Dialog message",
		zap.Int64("telegram_id", telegramID),
		zap.String("state", string(currentState)),
		zap.Bool("has_photo", len(msg.Photo) > 0))

	switch currentState {
	case state.StateAwaitingSessionPhoto:
		h.handleSessionPhoto(ctx, b, msg)
	case state.StateAwaitingFeedbackPhoto:
		h.handleFeedbackPhoto(ctx, b, msg)
	case state.StateAwaitingFollowUpQuestion:
		h.handleFollowUpQuestion(ctx, b, msg)
	case state.StateAwaitingFollowUpAnswer:
		h.handleFollowUpAnswer(ctx, b, msg)
	case state.StateNone:
		if len(msg.Photo) > 0 {
			h.sendMessage(ctx, b, msg.Chat.ID, "📸 Чтобы отправить работу на разбор, сначала выберите ментора: /mentors", nil)
		}
	default:
		h.logger.Warn("Unknown state", zap.String("state", string(currentState)))
		h.stateManager.ClearState(telegramID)
	}
}

// handleSessionPhoto создаёт сессию из фото с вопросом в подписи
func (h *Handlers) handleSessionPhoto(ctx context.Context, b *bot.Bot, msg *models.Message) {
	fileID := common.PhotoFileID(msg)
	if fileID == "" {
		h.sendError(ctx, b, msg.Chat.ID, "📸 Пришлите фото работы, а вопрос напишите в подписи к нему.\n\nДля отмены используйте /cancel")
		return
	}

	user, ok := h.dialogUser(ctx, b, msg)
	if !ok {
		return
	}

	mentorID, ok := h.stateManager.GetString(msg.From.ID, state.DataMentorID)
	if !ok {
		h.dialogLost(ctx, b, msg)
		return
	}

	session, err := h.coachingService.CreateSession(ctx, service.CreateSessionInput{
		StudentID:        user.SessionUserID(),
		MentorID:         mentorID,
		OriginalImageURL: fileID,
		InitialQuestion:  msg.Caption,
		Cost:             h.sessionCost,
	})
	if err != nil {
		h.dialogFailed(ctx, b, msg, "create session", err)
		return
	}

	h.stateManager.ClearState(msg.From.ID)
	h.sendSession(ctx, b, msg.Chat.ID, "✅ Работа отправлена ментору!", session, user)

	if err := h.notifier.NotifyNewRequest(ctx, session); err != nil {
		h.logger.Warn("Failed to notify mentor", zap.String("session_id", session.ID), zap.Error(err))
	}
}

// handleFeedbackPhoto сохраняет разбор ментора
func (h *Handlers) handleFeedbackPhoto(ctx context.Context, b *bot.Bot, msg *models.Message) {
	fileID := common.PhotoFileID(msg)
	if fileID == "" {
		h.sendError(ctx, b, msg.Chat.ID, "📸 Пришлите фото с правками, а комментарий напишите в подписи к нему.\n\nДля отмены используйте /cancel")
		return
	}

	user, sessionID, ok := h.dialogSession(ctx, b, msg, func(s *model.CoachingSession, userID string) bool {
		return s.MentorID == userID
	})
	if !ok {
		return
	}

	session, err := h.coachingService.SubmitFeedback(ctx, sessionID, model.Feedback{
		FeedbackImageURL: fileID,
		Comment:          msg.Caption,
	})
	if err != nil {
		h.dialogFailed(ctx, b, msg, "submit feedback", err)
		return
	}

	h.stateManager.ClearState(msg.From.ID)
	h.sendSession(ctx, b, msg.Chat.ID, "✅ Разбор отправлен ученику!", session, user)

	if err := h.notifier.NotifyFeedback(ctx, session); err != nil {
		h.logger.Warn("Failed to notify student", zap.String("session_id", session.ID), zap.Error(err))
	}
}

// handleFollowUpQuestion сохраняет уточняющий вопрос ученика
func (h *Handlers) handleFollowUpQuestion(ctx context.Context, b *bot.Bot, msg *models.Message) {
	if msg.Text == "" {
		h.sendError(ctx, b, msg.Chat.ID, "✏️ Напишите вопрос текстом.\n\nДля отмены используйте /cancel")
		return
	}

	user, sessionID, ok := h.dialogSession(ctx, b, msg, func(s *model.CoachingSession, userID string) bool {
		return s.StudentID == userID
	})
	if !ok {
		return
	}

	session, err := h.coachingService.SubmitFollowUp(ctx, sessionID, msg.Text)
	if err != nil {
		h.dialogFailed(ctx, b, msg, "submit follow-up", err)
		return
	}

	h.stateManager.ClearState(msg.From.ID)
	h.sendSession(ctx, b, msg.Chat.ID, "✅ Вопрос отправлен ментору!", session, user)

	if err := h.notifier.NotifyFollowUp(ctx, session); err != nil {
		h.logger.Warn("Failed to notify mentor", zap.String("session_id", session.ID), zap.Error(err))
	}
}

// handleFollowUpAnswer сохраняет ответ ментора на уточняющий вопрос
func (h *Handlers) handleFollowUpAnswer(ctx context.Context, b *bot.Bot, msg *models.Message) {
	if msg.Text == "" {
		h.sendError(ctx, b, msg.Chat.ID, "✏️ Напишите ответ текстом.\n\nДля отмены используйте /cancel")
		return
	}

	user, sessionID, ok := h.dialogSession(ctx, b, msg, func(s *model.CoachingSession, userID string) bool {
		return s.MentorID == userID
	})
	if !ok {
		return
	}

	session, err := h.coachingService.ReplyToFollowUp(ctx, sessionID, msg.Text)
	if err != nil {
		h.dialogFailed(ctx, b, msg, "reply to follow-up", err)
		return
	}

	h.stateManager.ClearState(msg.From.ID)
	h.sendSession(ctx, b, msg.Chat.ID, "✅ Ответ отправлен, сессия завершена!", session, user)

	if err := h.notifier.NotifyFollowUpAnswer(ctx, session); err != nil {
		h.logger.Warn("Failed to notify student", zap.String("session_id", session.ID), zap.Error(err))
	}
}

func (h *Handlers) dialogUser(ctx context.Context, b *bot.Bot, msg *models.Message) (*model.User, bool) {
	return h.requireUser(ctx, b, &models.Update{Message: msg})
}

// dialogSession достаёт сессию диалога и проверяет роль пользователя в ней
func (h *Handlers) dialogSession(
	ctx context.Context,
	b *bot.Bot,
	msg *models.Message,
	allowed func(session *model.CoachingSession, userID string) bool,
) (*model.User, string, bool) {
	user, ok := h.dialogUser(ctx, b, msg)
	if !ok {
		return nil, "", false
	}

	sessionID, ok := h.stateManager.GetString(msg.From.ID, state.DataSessionID)
	if !ok {
		h.dialogLost(ctx, b, msg)
		return nil, "", false
	}

	session, err := h.coachingService.GetSession(ctx, sessionID)
	if err != nil {
		h.stateManager.ClearState(msg.From.ID)
		h.reportError(ctx, b, msg.Chat.ID, "get session", err)
		return nil, "", false
	}
	if !allowed(session, user.SessionUserID()) {
		h.stateManager.ClearState(msg.From.ID)
		h.reportError(ctx, b, msg.Chat.ID, "check session role", common.ErrNotParticipant)
		return nil, "", false
	}

	return user, sessionID, true
}

// dialogFailed сообщает об ошибке. При неверном вводе диалог продолжается
func (h *Handlers) dialogFailed(ctx context.Context, b *bot.Bot, msg *models.Message, operation string, err error) {
	if errors.Is(err, service.ErrInvalidInput) {
		h.reportError(ctx, b, msg.Chat.ID, operation, err)
		h.sendError(ctx, b, msg.Chat.ID, "Попробуйте ещё раз или используйте /cancel")
		return
	}

	h.stateManager.ClearState(msg.From.ID)
	h.reportError(ctx, b, msg.Chat.ID, operation, err)
}

func (h *Handlers) dialogLost(ctx context.Context, b *bot.Bot, msg *models.Message) {
	h.logger.Error("Dialog data missing", zap.Int64("telegram_id", msg.From.ID))
	h.stateManager.ClearState(msg.From.ID)
	h.sendError(ctx, b, msg.Chat.ID, "❌ Данные диалога потеряны. Начните заново: /sessions")
}

func (h *Handlers) sendSession(ctx context.Context, b *bot.Bot, chatID int64, header string, session *model.CoachingSession, user *model.User) {
	text, markup := common.BuildSessionScreen(session, user, h.clock.Now())
	h.sendMessage(ctx, b, chatID, header+"\n\n"+text, markup)
}
