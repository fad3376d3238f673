package controller

import (
	"context"
	"fmt"
	"html"

	"github.com/Freeeeeet/coaching_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/coaching_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/coaching_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/coaching_bot/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Telegram ограничивает подпись к фото 1024 символами
const maxCaptionLength = 1000

type userLookup interface {
	GetBySessionUserID(ctx context.Context, sessionUserID string) (*model.User, error)
}

// Notifier отправляет участникам сессии уведомления через бота
type Notifier struct {
	bot    *bot.Bot
	users  userLookup
	logger *zap.Logger
}

func NewNotifier(b *bot.Bot, users userLookup, logger *zap.Logger) *Notifier {
	return &Notifier{
		bot:    b,
		users:  users,
		logger: logger,
	}
}

// NotifyNewRequest отправляет ментору работу ученика
func (n *Notifier) NotifyNewRequest(ctx context.Context, session *model.CoachingSession) error {
	caption := fmt.Sprintf("🆕 Новый запрос на разбор #%s\n\n❔ %s\n\n⏰ Ответить до %s",
		formatting.ShortID(session.ID),
		html.EscapeString(formatting.Preview(session.InitialQuestion, maxCaptionLength-100)),
		formatting.FormatDateTime(session.DeadlineAt),
	)
	markup := keyboard.NewBuilder().
		Row(keyboard.Button("✍️ Дать разбор", callbacktypes.Feedback+session.ID)).
		Build()

	return n.sendPhoto(ctx, session.MentorID, session.OriginalImageURL, caption, markup)
}

// NotifyFeedback отправляет ученику разбор ментора
func (n *Notifier) NotifyFeedback(ctx context.Context, session *model.CoachingSession) error {
	if session.Feedback == nil {
		return fmt.Errorf("session %s has no feedback", session.ID)
	}

	caption := fmt.Sprintf("✅ Разбор по сессии #%s\n\n💬 %s\n\nМожно задать один уточняющий вопрос до %s",
		formatting.ShortID(session.ID),
		html.EscapeString(formatting.Preview(session.Feedback.Comment, maxCaptionLength-100)),
		formatting.FormatDateTime(session.DeadlineAt),
	)
	markup := keyboard.NewBuilder().
		Row(keyboard.Button("❓ Задать уточняющий вопрос", callbacktypes.FollowUp+session.ID)).
		Build()

	return n.sendPhoto(ctx, session.StudentID, session.Feedback.FeedbackImageURL, caption, markup)
}

// NotifyFollowUp отправляет ментору уточняющий вопрос
func (n *Notifier) NotifyFollowUp(ctx context.Context, session *model.CoachingSession) error {
	if session.FollowUp == nil {
		return fmt.Errorf("session %s has no follow-up", session.ID)
	}

	text := fmt.Sprintf("❓ Уточняющий вопрос по сессии #%s\n\n%s\n\n⏰ Ответить до %s",
		formatting.ShortID(session.ID),
		html.EscapeString(session.FollowUp.Question),
		formatting.FormatDateTime(session.DeadlineAt),
	)
	markup := keyboard.NewBuilder().
		Row(keyboard.Button("💬 Ответить", callbacktypes.Reply+session.ID)).
		Build()

	return n.sendText(ctx, session.MentorID, text, markup)
}

// NotifyFollowUpAnswer отправляет ученику ответ ментора
func (n *Notifier) NotifyFollowUpAnswer(ctx context.Context, session *model.CoachingSession) error {
	if session.FollowUp == nil || !session.FollowUp.IsAnswered() {
		return fmt.Errorf("session %s has no follow-up answer", session.ID)
	}

	text := fmt.Sprintf("🗨 Ментор ответил на ваш вопрос по сессии #%s\n\n%s\n\n✔️ Сессия завершена",
		formatting.ShortID(session.ID),
		html.EscapeString(session.FollowUp.Answer),
	)

	return n.sendText(ctx, session.StudentID, text, nil)
}

// NotifySessionExpired сообщает обоим участникам о закрытии сессии по таймауту
func (n *Notifier) NotifySessionExpired(ctx context.Context, session *model.CoachingSession) error {
	studentText, mentorText := expiredMessages(session)
	if studentText == "" {
		return nil
	}

	studentErr := n.sendText(ctx, session.StudentID, studentText, nil)
	mentorErr := n.sendText(ctx, session.MentorID, mentorText, nil)
	if studentErr != nil {
		return studentErr
	}
	return mentorErr
}

func expiredMessages(session *model.CoachingSession) (student, mentor string) {
	id := formatting.ShortID(session.ID)

	switch session.CloseReason {
	case model.CloseReasonMentorTimeout:
		return fmt.Sprintf("⌛ Ментор не дал разбор по сессии #%s вовремя.\n💸 Кредиты возвращены на баланс: /balance", id),
			fmt.Sprintf("⌛ Время на разбор по сессии #%s истекло. Кредиты возвращены ученику.", id)
	case model.CloseReasonFollowupTimeout:
		return fmt.Sprintf("⌛ Ментор не ответил на уточняющий вопрос по сессии #%s.\n💸 Кредиты возвращены на баланс: /balance", id),
			fmt.Sprintf("⌛ Время на ответ по сессии #%s истекло. Кредиты возвращены ученику.", id)
	case model.CloseReasonFollowupWindowExpired:
		return fmt.Sprintf("⚫️ Время на уточняющий вопрос по сессии #%s истекло. Сессия закрыта.", id),
			fmt.Sprintf("✔️ Сессия #%s закрыта: ученик не задал уточняющий вопрос.", id)
	default:
		return "", ""
	}
}

func (n *Notifier) sendText(ctx context.Context, sessionUserID, text string, markup *models.InlineKeyboardMarkup) error {
	chatID, err := n.chatID(ctx, sessionUserID)
	if err != nil {
		return err
	}

	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	if _, err := n.bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("send message to %s: %w", sessionUserID, err)
	}
	return nil
}

func (n *Notifier) sendPhoto(ctx context.Context, sessionUserID, fileID, caption string, markup *models.InlineKeyboardMarkup) error {
	chatID, err := n.chatID(ctx, sessionUserID)
	if err != nil {
		return err
	}

	params := &bot.SendPhotoParams{
		ChatID:    chatID,
		Photo:     &models.InputFileString{Data: fileID},
		Caption:   caption,
		ParseMode: models.ParseModeHTML,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	if _, err := n.bot.SendPhoto(ctx, params); err != nil {
		return fmt.Errorf("send photo to %s: %w", sessionUserID, err)
	}
	return nil
}

func (n *Notifier) chatID(ctx context.Context, sessionUserID string) (int64, error) {
	user, err := n.users.GetBySessionUserID(ctx, sessionUserID)
	if err != nil {
		return 0, fmt.Errorf("get user %s: %w", sessionUserID, err)
	}
	if user == nil {
		return 0, fmt.Errorf("user %s not found", sessionUserID)
	}
	// В личном чате ID чата совпадает с Telegram ID
	return user.TelegramID, nil
}
