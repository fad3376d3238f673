package common

import (
	"context"

	"github.com/Freeeeeet/coaching_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/coaching_bot/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// HandlerContext содержит общие данные для обработки callback
type HandlerContext struct {
	Ctx        context.Context
	Bot        *bot.Bot
	Callback   *models.CallbackQuery
	Handler    *callbacktypes.Handler
	Message    *models.Message
	User       *model.User
	TelegramID int64
	ChatID     int64
}

// NewHandlerContext создаёт новый контекст обработчика
func NewHandlerContext(
	ctx context.Context,
	b *bot.Bot,
	callback *models.CallbackQuery,
	h *callbacktypes.Handler,
) *HandlerContext {
	msg := GetMessageFromCallback(callback)
	// В личном чате ID чата совпадает с ID пользователя
	chatID := callback.From.ID
	if msg != nil {
		chatID = msg.Chat.ID
	}

	return &HandlerContext{
		Ctx:        ctx,
		Bot:        b,
		Callback:   callback,
		Handler:    h,
		Message:    msg,
		TelegramID: callback.From.ID,
		ChatID:     chatID,
	}
}

// LoadUser загружает пользователя в контекст
func (hc *HandlerContext) LoadUser() error {
	user, err := hc.Handler.UserService.GetByTelegramID(hc.Ctx, hc.TelegramID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	hc.User = user
	return nil
}

// RequireUser проверяет что пользователь загружен
func (hc *HandlerContext) RequireUser() error {
	if hc.User == nil {
		return hc.LoadUser()
	}
	return nil
}

// RequireMentor проверяет что пользователь является ментором
func (hc *HandlerContext) RequireMentor() error {
	if err := hc.RequireUser(); err != nil {
		return err
	}
	if !hc.User.IsMentor {
		return ErrNotAMentor
	}
	return nil
}

// RequireParticipant загружает сессию и проверяет что пользователь в ней участвует.
// Дедлайны сессии применяются при чтении
func (hc *HandlerContext) RequireParticipant(sessionID string) (*model.CoachingSession, error) {
	if err := hc.RequireUser(); err != nil {
		return nil, err
	}

	session, err := hc.Handler.CoachingService.GetSession(hc.Ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsParticipant(hc.User.SessionUserID()) {
		return nil, ErrNotParticipant
	}

	return session, nil
}

// Answer отвечает на callback query
func (hc *HandlerContext) Answer(text string) {
	AnswerCallback(hc.Ctx, hc.Bot, hc.Callback.ID, text)
}

// AnswerAlert отвечает на callback query с alert
func (hc *HandlerContext) AnswerAlert(text string) {
	AnswerCallbackAlert(hc.Ctx, hc.Bot, hc.Callback.ID, text)
}

// EditMessage редактирует сообщение
func (hc *HandlerContext) EditMessage(text string, keyboard *models.InlineKeyboardMarkup) error {
	if hc.Message == nil {
		return ErrNoMessage
	}

	_, err := hc.Bot.EditMessageText(hc.Ctx, &bot.EditMessageTextParams{
		ChatID:      hc.ChatID,
		MessageID:   hc.Message.ID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: keyboard,
	})

	// "message is not modified" не считаем ошибкой
	if IsMessageNotModifiedError(err) {
		return nil
	}

	return err
}

// ShowScreen редактирует текущее сообщение, а если не вышло, отправляет новое
func (hc *HandlerContext) ShowScreen(text string, keyboard *models.InlineKeyboardMarkup) error {
	if err := hc.EditMessage(text, keyboard); err == nil {
		return nil
	}
	return hc.SendMessage(text, keyboard)
}

// DeleteMessage удаляет сообщение
func (hc *HandlerContext) DeleteMessage() error {
	if hc.Message == nil {
		return ErrNoMessage
	}

	_, err := hc.Bot.DeleteMessage(hc.Ctx, &bot.DeleteMessageParams{
		ChatID:    hc.ChatID,
		MessageID: hc.Message.ID,
	})

	return err
}

// SendMessage отправляет новое сообщение
func (hc *HandlerContext) SendMessage(text string, keyboard *models.InlineKeyboardMarkup) error {
	params := &bot.SendMessageParams{
		ChatID:    hc.ChatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err := hc.Bot.SendMessage(hc.Ctx, params)
	return err
}

// ClearState очищает состояние пользователя
func (hc *HandlerContext) ClearState() {
	hc.Handler.StateManager.ClearState(hc.TelegramID)
}

// StartDialog переводит пользователя в состояние диалога с одним значением
func (hc *HandlerContext) StartDialog(state callbacktypes.UserState, key string, value interface{}) {
	hc.Handler.StateManager.StartDialog(hc.TelegramID, state, key, value)
}
