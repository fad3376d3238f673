package app

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/coaching_bot/internal/model"
	"go.uber.org/zap"
)

// Expirer применяет истёкшие дедлайны сессий
type Expirer interface {
	SweepExpired(ctx context.Context) ([]*model.CoachingSession, error)
}

// Notifier сообщает участникам о закрытии сессии по таймауту
type Notifier interface {
	NotifySessionExpired(ctx context.Context, session *model.CoachingSession) error
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	expirer  Expirer
	notifier Notifier
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewScheduler создаёт новый планировщик. interval <= 0 отключает проверку дедлайнов
func NewScheduler(expirer Expirer, notifier Notifier, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		expirer:  expirer,
		notifier: notifier,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("Deadline sweeper disabled")
		return
	}

	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))

	s.wg.Add(1)
	go s.runSweepTask(ctx)
}

// Stop останавливает фоновые задачи и ждёт их завершения
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	s.wg.Wait()
}

func (s *Scheduler) runSweepTask(ctx context.Context) {
	defer s.wg.Done()

	// Первый запуск сразу при старте
	s.Sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-s.stopChan:
			s.logger.Info("Deadline sweep task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Deadline sweep task cancelled")
			return
		}
	}
}

// Sweep один проход: закрывает просроченные сессии и уведомляет участников.
// Возвращает число сессий, сменивших статус
func (s *Scheduler) Sweep(ctx context.Context) int {
	sessions, err := s.expirer.SweepExpired(ctx)
	if err != nil {
		// Часть сессий могла успеть перейти, уведомляем по ним
		s.logger.Error("Failed to sweep expired sessions", zap.Error(err))
	}

	for _, session := range sessions {
		if s.notifier == nil {
			continue
		}
		if err := s.notifier.NotifySessionExpired(ctx, session); err != nil {
			s.logger.Warn("Failed to notify about expired session",
				zap.String("session_id", session.ID),
				zap.Error(err),
			)
		}
	}

	if len(sessions) > 0 {
		s.logger.Info("Expired sessions processed", zap.Int("count", len(sessions)))
	}

	return len(sessions)
}
