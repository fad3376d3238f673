package handlers

import (
	"context"
	"fmt"
	"html"

	"github.com/Freeeeeet/coaching_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/coaching_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/coaching_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/coaching_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/coaching_bot/internal/controller/state"
	"github.com/Freeeeeet/coaching_bot/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	user := update.Message.From

	registeredUser, err := h.userService.RegisterUser(
		ctx,
		user.ID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.LanguageCode,
	)
	if err != nil {
		h.logger.Error("Failed to register user", zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка при регистрации. Попробуйте позже.")
		return
	}

	balance, err := h.coachingService.GetCreditBalance(ctx, registeredUser.SessionUserID())
	if err != nil {
		h.reportError(ctx, b, update.Message.Chat.ID, "get balance", err)
		return
	}

	welcomeText := fmt.Sprintf(
		"👋 Привет, %s!\n\n"+
			"Здесь можно получить разбор своей работы от ментора.\n"+
			"Один разбор стоит %s, на вашем балансе %s.\n\n"+
			"%s",
		html.EscapeString(registeredUser.DisplayName()),
		formatting.FormatCredits(h.sessionCost),
		formatting.FormatCredits(balance),
		common.MainMenuText(registeredUser),
	)

	h.sendMessage(ctx, b, update.Message.Chat.ID, welcomeText, nil)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	deadlines := h.coachingService.Deadlines()

	helpText := "📚 <b>Как это работает</b>\n\n" +
		"1. Выберите ментора в /mentors и отправьте фото работы с вопросом в подписи.\n" +
		fmt.Sprintf("2. С баланса спишется %s. Ментор даёт разбор в течение %s, иначе кредиты вернутся.\n",
			formatting.FormatCredits(h.sessionCost), formatting.FormatWindow(deadlines.MentorResponse)) +
		fmt.Sprintf("3. После разбора можно задать один уточняющий вопрос в течение %s.\n",
			formatting.FormatWindow(deadlines.FollowUpWindow)) +
		fmt.Sprintf("4. Ментор отвечает на него в течение %s, иначе кредиты вернутся.\n\n",
			formatting.FormatWindow(deadlines.FollowUpReply)) +
		"Команды:\n" +
		"/mentors - Выбрать ментора\n" +
		"/sessions - Мои сессии\n" +
		"/balance - Баланс кредитов\n" +
		"/history - История операций\n" +
		"/becomementor - Стать ментором\n" +
		"/cancel - Отменить текущее действие"

	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText, nil)
}

// HandleCancel обрабатывает команду /cancel - отмена текущего диалога
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	telegramID := update.Message.From.ID
	if h.stateManager.GetState(telegramID) == state.StateNone {
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Нет активных операций для отмены.")
		return
	}

	h.stateManager.ClearState(telegramID)
	h.sendMessage(ctx, b, update.Message.Chat.ID, "✅ Операция отменена.\n\nИспользуйте /help для просмотра доступных команд.", nil)
}

// HandleBalance обрабатывает команду /balance
func (h *Handlers) HandleBalance(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	balance, err := h.coachingService.GetCreditBalance(ctx, user.SessionUserID())
	if err != nil {
		h.reportError(ctx, b, update.Message.Chat.ID, "get balance", err)
		return
	}

	text := fmt.Sprintf("💰 Баланс: <b>%s</b>\n\nРазбор стоит %s. История операций: /history",
		formatting.FormatCredits(balance), formatting.FormatCredits(h.sessionCost))
	h.sendMessage(ctx, b, update.Message.Chat.ID, text, nil)
}

// HandleHistory обрабатывает команду /history
func (h *Handlers) HandleHistory(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	history, err := h.coachingService.GetTransactionHistory(ctx, user.SessionUserID())
	if err != nil {
		h.reportError(ctx, b, update.Message.Chat.ID, "get history", err)
		return
	}

	var balance int64
	for _, txn := range history {
		balance += txn.Amount
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, common.BuildHistoryScreen(balance, history), nil)
}

// HandleMentors обрабатывает команду /mentors
func (h *Handlers) HandleMentors(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	mentors, err := h.userService.GetMentors(ctx)
	if err != nil {
		h.reportError(ctx, b, update.Message.Chat.ID, "get mentors", err)
		return
	}

	// Себя в списке не показываем
	available := make([]*model.User, 0, len(mentors))
	for _, mentor := range mentors {
		if mentor.ID != user.ID {
			available = append(available, mentor)
		}
	}

	if len(available) == 0 {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "📭 Пока нет доступных менторов. Загляните позже.", nil)
		return
	}

	text := fmt.Sprintf("🎓 <b>Менторы</b>\n\nВыберите ментора, чтобы отправить работу на разбор.\nСтоимость: %s",
		formatting.FormatCredits(h.sessionCost))
	h.sendMessage(ctx, b, update.Message.Chat.ID, text, keyboard.MentorList(available))
}

// HandleMySessions обрабатывает команду /sessions
func (h *Handlers) HandleMySessions(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	sessions, err := h.coachingService.ListUserSessions(ctx, user.SessionUserID())
	if err != nil {
		h.reportError(ctx, b, update.Message.Chat.ID, "list sessions", err)
		return
	}

	text, markup := common.BuildSessionsScreen(sessions, 0)
	h.sendMessage(ctx, b, update.Message.Chat.ID, text, markup)
}

// HandleBecomeMentor обрабатывает команду /becomementor
func (h *Handlers) HandleBecomeMentor(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	if user.IsMentor {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "✅ Вы уже ментор. Запросы учеников: /sessions", nil)
		return
	}

	markup := keyboard.NewBuilder().
		Row(keyboard.ConfirmCancelButtons(callbacktypes.BecomeMentor, callbacktypes.CancelBecomeMentor)...).
		Build()

	text := "🎓 Стать ментором\n\n" +
		"Ученики смогут присылать вам работы на разбор.\n" +
		fmt.Sprintf("На каждый запрос нужно ответить в течение %s.\n\nПродолжить?",
			formatting.FormatWindow(h.coachingService.Deadlines().MentorResponse))

	h.sendMessage(ctx, b, update.Message.Chat.ID, text, markup)
}
