package controller

import (
	"context"

	"github.com/Freeeeeet/coaching_bot/internal/controller/callbacks"
	"github.com/Freeeeeet/coaching_bot/internal/controller/handlers"
	"github.com/Freeeeeet/coaching_bot/internal/controller/state"
	"github.com/Freeeeeet/coaching_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type BotController struct {
	bot             *bot.Bot
	handlers        *handlers.Handlers
	callbackHandler *callbacks.Handler
	logger          *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	userService *service.UserService,
	coachingService *service.CoachingService,
	notifier *Notifier,
	clock service.Clock,
	sessionCost int64,
	logger *zap.Logger,
) *BotController {
	stateManager := state.NewManager()

	cmdHandlers := handlers.NewHandlers(
		userService,
		coachingService,
		stateManager,
		notifier,
		clock,
		sessionCost,
		logger,
	)

	callbackHandler := callbacks.NewHandler(
		userService,
		coachingService,
		state.NewAdapter(stateManager),
		notifier,
		clock,
		sessionCost,
		logger,
	)

	return &BotController{
		bot:             botInstance,
		handlers:        cmdHandlers,
		callbackHandler: callbackHandler,
		logger:          logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.handlers.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handlers.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/cancel", bot.MatchTypeExact, c.handlers.HandleCancel)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/balance", bot.MatchTypeExact, c.handlers.HandleBalance)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/history", bot.MatchTypeExact, c.handlers.HandleHistory)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/mentors", bot.MatchTypeExact, c.handlers.HandleMentors)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/sessions", bot.MatchTypeExact, c.handlers.HandleMySessions)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/becomementor", bot.MatchTypeExact, c.handlers.HandleBecomeMentor)

	// Фото с подписью приходят без текста, поэтому ловим их отдельно
	c.bot.RegisterHandlerMatchFunc(isPhotoMessage, c.handlers.HandleMessage)

	// Обработчик текстовых сообщений (для диалогов с состояниями)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, c.handlers.HandleMessage)

	// Обработчик нажатий на inline кнопки
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, c.callbackHandler.HandleCallbackQuery)

	return c.setCommands(ctx)
}

func isPhotoMessage(update *models.Update) bool {
	return update.Message != nil && len(update.Message.Photo) > 0
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать работу с ботом"},
		{Command: "help", Description: "❓ Как это работает"},
		{Command: "mentors", Description: "🎓 Выбрать ментора"},
		{Command: "sessions", Description: "🗂 Мои сессии"},
		{Command: "balance", Description: "💰 Баланс кредитов"},
		{Command: "history", Description: "🧾 История операций"},
		{Command: "becomementor", Description: "✍️ Стать ментором"},
		{Command: "cancel", Description: "❌ Отменить действие"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает бота и блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
}
