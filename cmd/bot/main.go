package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/coaching_bot/internal/app"
	"github.com/Freeeeeet/coaching_bot/internal/config"
	"github.com/Freeeeeet/coaching_bot/internal/controller"
	"github.com/Freeeeeet/coaching_bot/internal/repository"
	"github.com/Freeeeeet/coaching_bot/internal/service"
	"github.com/Freeeeeet/coaching_bot/migrations"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Bot stopped with error", zap.Error(err))
	}

	logger.Info("Bot stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting coaching bot",
		zap.String("environment", cfg.Environment),
		zap.Int64("session_cost", cfg.SessionCost),
		zap.Int64("welcome_credits", cfg.WelcomeCredits),
		zap.Duration("sweep_interval", cfg.SweepInterval),
	)

	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}

	migrator, err := app.NewMigrator(pool, migrations.FS, logger)
	if err != nil {
		return err
	}
	if err := migrator.Run(ctx); err != nil {
		migrator.Close()
		return err
	}
	migrator.Close()

	clock := service.SystemClock{}

	coachingService := service.NewCoachingService(
		repository.NewPgStore(pool),
		logger.Named("coaching"),
		service.WithClock(clock),
	)
	userService := service.NewUserService(
		repository.NewUserRepository(pool),
		coachingService,
		cfg.WelcomeCredits,
		logger.Named("users"),
	)

	b, err := bot.New(cfg.TelegramToken,
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			logger.Debug("Unhandled update", zap.Int64("update_id", update.ID))
		}),
		bot.WithErrorsHandler(func(err error) {
			logger.Warn("Telegram error", zap.Error(err))
		}),
	)
	if err != nil {
		return err
	}

	notifier := controller.NewNotifier(b, userService, logger.Named("notifier"))

	botController := controller.NewBotController(
		b,
		userService,
		coachingService,
		notifier,
		clock,
		cfg.SessionCost,
		logger.Named("bot"),
	)
	if err := botController.RegisterHandlers(ctx); err != nil {
		// Меню команд не критично для работы бота
		logger.Warn("Bot commands menu not set", zap.Error(err))
	}

	scheduler := app.NewScheduler(coachingService, notifier, cfg.SweepInterval, logger.Named("scheduler"))
	scheduler.Start(ctx)
	defer scheduler.Stop()

	// Блокируется до сигнала остановки
	botController.Start(ctx)
	return nil
}
