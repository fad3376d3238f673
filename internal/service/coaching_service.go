package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/coaching_bot/internal/model"
	"github.com/Freeeeeet/coaching_bot/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sweepBatchSize = 200

// CoachingService ведёт жизненный цикл сессий и журнал кредитов.
// Любое чтение или изменение сессии сначала проверяет её дедлайн.
type CoachingService struct {
	store     repository.Store
	clock     Clock
	deadlines Deadlines
	locks     *keyedLocker
	logger    *zap.Logger
}

type Option func(*CoachingService)

// WithClock подменяет источник времени
func WithClock(clock Clock) Option {
	return func(s *CoachingService) {
		s.clock = clock
	}
}

// WithDeadlines задаёт сроки вместо стандартных
func WithDeadlines(deadlines Deadlines) Option {
	return func(s *CoachingService) {
		s.deadlines = deadlines
	}
}

func NewCoachingService(store repository.Store, logger *zap.Logger, opts ...Option) *CoachingService {
	s := &CoachingService{
		store:     store,
		clock:     SystemClock{},
		deadlines: DefaultDeadlines(),
		locks:     newKeyedLocker(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateSessionInput struct {
	StudentID        string
	MentorID         string
	OriginalImageURL string
	InitialQuestion  string
	Cost             int64
}

// CreateSession списывает кредиты студента и создаёт сессию
func (s *CoachingService) CreateSession(ctx context.Context, input CreateSessionInput) (*model.CoachingSession, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	// Истёкшие сессии студента могли вернуть кредиты
	if err := s.refreshUserSessions(ctx, input.StudentID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(userLockKey(input.StudentID))
	defer unlock()

	now := s.clock.Now()
	session := &model.CoachingSession{
		ID:               uuid.NewString(),
		StudentID:        input.StudentID,
		MentorID:         input.MentorID,
		OriginalImageURL: input.OriginalImageURL,
		InitialQuestion:  input.InitialQuestion,
		Status:           model.SessionStatusPending,
		CreatedAt:        now,
		DeadlineAt:       now.Add(s.deadlines.MentorResponse),
	}

	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.LockUserCredits(ctx, input.StudentID); err != nil {
			return err
		}

		balance, err := tx.GetBalance(ctx, input.StudentID)
		if err != nil {
			return fmt.Errorf("get balance: %w", err)
		}

		if balance < input.Cost {
			return &InsufficientCreditsError{Balance: balance, Cost: input.Cost}
		}

		if err := tx.CreateSession(ctx, session); err != nil {
			return err
		}

		sessionID := session.ID
		return tx.AppendTransaction(ctx, &model.CreditTransaction{
			ID:        uuid.NewString(),
			UserID:    input.StudentID,
			Amount:    -input.Cost,
			Type:      model.TransactionTypeUse,
			SessionID: &sessionID,
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("Coaching session created",
		zap.String("session_id", session.ID),
		zap.String("student_id", session.StudentID),
		zap.String("mentor_id", session.MentorID),
		zap.Int64("cost", input.Cost),
		zap.Time("deadline_at", session.DeadlineAt),
	)

	return session, nil
}

// SubmitFeedback сохраняет первый ответ ментора
func (s *CoachingService) SubmitFeedback(ctx context.Context, sessionID string, feedback model.Feedback) (*model.CoachingSession, error) {
	if err := validateRequired("feedback_image_url", feedback.FeedbackImageURL); err != nil {
		return nil, err
	}
	if err := validateLength("comment", feedback.Comment, MinCommentLength, MaxCommentLength); err != nil {
		return nil, err
	}

	return s.runCommand(ctx, "submit feedback", sessionID, command{
		check: func(session *model.CoachingSession) error {
			return requireStatus("submit feedback", session, model.SessionStatusPending)
		},
		apply: func(session *model.CoachingSession, now time.Time) {
			answeredAt := now
			session.Feedback = &model.Feedback{
				FeedbackImageURL: feedback.FeedbackImageURL,
				Comment:          feedback.Comment,
			}
			session.Status = model.SessionStatusAnswered
			session.AnsweredAt = &answeredAt
			session.DeadlineAt = answeredAt.Add(s.deadlines.FollowUpWindow)
		},
	})
}

// SubmitFollowUp сохраняет уточняющий вопрос студента
func (s *CoachingService) SubmitFollowUp(ctx context.Context, sessionID, question string) (*model.CoachingSession, error) {
	if err := validateLength("follow_up_question", question, MinFollowUpQuestionLength, MaxFollowUpQuestionLength); err != nil {
		return nil, err
	}

	return s.runCommand(ctx, "submit follow-up", sessionID, command{
		check: func(session *model.CoachingSession) error {
			if err := requireStatus("submit follow-up", session, model.SessionStatusAnswered); err != nil {
				return err
			}
			if session.FollowUp != nil {
				return fmt.Errorf("submit follow-up: %w: follow-up already asked", ErrPreconditionFailed)
			}
			return nil
		},
		apply: func(session *model.CoachingSession, now time.Time) {
			session.FollowUp = &model.FollowUp{
				Question:   question,
				QuestionAt: now,
			}
			session.Status = model.SessionStatusFollowupPending
			session.DeadlineAt = now.Add(s.deadlines.FollowUpReply)
		},
	})
}

// ReplyToFollowUp сохраняет ответ ментора и завершает сессию
func (s *CoachingService) ReplyToFollowUp(ctx context.Context, sessionID, answer string) (*model.CoachingSession, error) {
	if err := validateLength("answer", answer, MinAnswerLength, 0); err != nil {
		return nil, err
	}

	return s.runCommand(ctx, "reply to follow-up", sessionID, command{
		check: func(session *model.CoachingSession) error {
			if err := requireStatus("reply to follow-up", session, model.SessionStatusFollowupPending); err != nil {
				return err
			}
			if session.FollowUp == nil {
				return fmt.Errorf("reply to follow-up: %w: no follow-up question", ErrInvalidFollowUpState)
			}
			if session.FollowUp.IsAnswered() {
				return fmt.Errorf("reply to follow-up: %w: already answered", ErrInvalidFollowUpState)
			}
			return nil
		},
		apply: func(session *model.CoachingSession, now time.Time) {
			answerAt := now
			closedAt := now
			session.FollowUp.Answer = answer
			session.FollowUp.AnswerAt = &answerAt
			session.Status = model.SessionStatusCompleted
			session.CloseReason = model.CloseReasonCompleted
			session.ClosedAt = &closedAt
		},
	})
}

// GetSession возвращает сессию с учётом истёкших дедлайнов
func (s *CoachingService) GetSession(ctx context.Context, sessionID string) (*model.CoachingSession, error) {
	session, _, err := s.loadAndRefresh(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// ListUserSessions возвращает сессии, где пользователь студент или ментор, новые первыми
func (s *CoachingService) ListUserSessions(ctx context.Context, userID string) ([]*model.CoachingSession, error) {
	ids, err := s.listUserSessionIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	sessions := make([]*model.CoachingSession, 0, len(ids))
	for _, id := range ids {
		session, _, err := s.loadAndRefresh(ctx, id)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	return sessions, nil
}

// GetCreditBalance возвращает баланс пользователя
func (s *CoachingService) GetCreditBalance(ctx context.Context, userID string) (int64, error) {
	if err := s.refreshUserSessions(ctx, userID); err != nil {
		return 0, err
	}

	var balance int64
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		balance, err = tx.GetBalance(ctx, userID)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("get credit balance: %w", err)
	}

	return balance, nil
}

// GetTransactionHistory возвращает журнал пользователя, новые записи первыми
func (s *CoachingService) GetTransactionHistory(ctx context.Context, userID string) ([]*model.CreditTransaction, error) {
	if err := s.refreshUserSessions(ctx, userID); err != nil {
		return nil, err
	}

	var history []*model.CreditTransaction
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		history, err = tx.GetUserTransactions(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get transaction history: %w", err)
	}

	return history, nil
}

// GrantCredits начисляет кредиты вне сессий (бонус, пополнение)
func (s *CoachingService) GrantCredits(ctx context.Context, userID string, amount int64) (*model.CreditTransaction, error) {
	if err := validateRequired("user_id", userID); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, invalidInput("amount", "must be positive")
	}

	txn := &model.CreditTransaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Amount:    amount,
		Type:      model.TransactionTypeEarn,
		CreatedAt: s.clock.Now(),
	}

	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.AppendTransaction(ctx, txn)
	})
	if err != nil {
		return nil, fmt.Errorf("grant credits: %w", err)
	}

	s.logger.Info("Credits granted",
		zap.String("user_id", userID),
		zap.Int64("amount", amount),
	)

	return txn, nil
}

// GrantWelcomeCredits начисляет приветственные кредиты, если у пользователя ещё нет начислений.
// Возвращает nil, nil когда бонус уже был выдан.
func (s *CoachingService) GrantWelcomeCredits(ctx context.Context, userID string, amount int64) (*model.CreditTransaction, error) {
	if err := validateRequired("user_id", userID); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, invalidInput("amount", "must be positive")
	}

	unlock := s.locks.Lock(userLockKey(userID))
	defer unlock()

	var granted *model.CreditTransaction
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.LockUserCredits(ctx, userID); err != nil {
			return err
		}

		history, err := tx.GetUserTransactions(ctx, userID)
		if err != nil {
			return fmt.Errorf("get user transactions: %w", err)
		}
		for _, txn := range history {
			if txn.Type == model.TransactionTypeEarn {
				return nil
			}
		}

		granted = &model.CreditTransaction{
			ID:        uuid.NewString(),
			UserID:    userID,
			Amount:    amount,
			Type:      model.TransactionTypeEarn,
			CreatedAt: s.clock.Now(),
		}
		return tx.AppendTransaction(ctx, granted)
	})
	if err != nil {
		return nil, fmt.Errorf("grant welcome credits: %w", err)
	}

	if granted != nil {
		s.logger.Info("Welcome credits granted",
			zap.String("user_id", userID),
			zap.Int64("amount", amount),
		)
	}

	return granted, nil
}

// Deadlines возвращает длительности окон ожидания
func (s *CoachingService) Deadlines() Deadlines {
	return s.deadlines
}

// SweepExpired проверяет сессии с истёкшим дедлайном и возвращает те, что сменили статус.
// Ошибка по одной сессии не останавливает обход остальных.
func (s *CoachingService) SweepExpired(ctx context.Context) ([]*model.CoachingSession, error) {
	var ids []string
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		ids, err = tx.ListExpiredSessionIDs(ctx, s.clock.Now(), sweepBatchSize)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list expired sessions: %w", err)
	}

	var (
		transitioned []*model.CoachingSession
		errs         []error
	)
	for _, id := range ids {
		session, changed, err := s.loadAndRefresh(ctx, id)
		if err != nil {
			s.logger.Error("Failed to sweep coaching session",
				zap.String("session_id", id),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("session %s: %w", id, err))
			continue
		}
		if changed {
			transitioned = append(transitioned, session)
		}
	}

	return transitioned, errors.Join(errs...)
}

type command struct {
	check func(session *model.CoachingSession) error
	apply func(session *model.CoachingSession, now time.Time)
}

// runCommand загружает сессию, применяет истёкший дедлайн и выполняет команду.
// Переход по дедлайну сохраняется даже если проверка команды не прошла.
func (s *CoachingService) runCommand(ctx context.Context, op, sessionID string, cmd command) (*model.CoachingSession, error) {
	unlock := s.locks.Lock(sessionLockKey(sessionID))
	defer unlock()

	var (
		result *model.CoachingSession
		cmdErr error
	)

	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		now := s.clock.Now()

		session, _, err := s.refresh(ctx, tx, sessionID, now)
		if err != nil {
			return err
		}

		if err := cmd.check(session); err != nil {
			cmdErr = err
			result = session
			return nil
		}

		from := session.Status
		cmd.apply(session, now)

		if err := tx.UpdateSession(ctx, session); err != nil {
			return err
		}

		s.logger.Info("Coaching session updated",
			zap.String("session_id", session.ID),
			zap.String("operation", op),
			zap.String("from", string(from)),
			zap.String("to", string(session.Status)),
		)

		result = session
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cmdErr != nil {
		return nil, cmdErr
	}

	return result, nil
}

// loadAndRefresh загружает сессию под блокировкой и применяет истёкший дедлайн
func (s *CoachingService) loadAndRefresh(ctx context.Context, sessionID string) (*model.CoachingSession, bool, error) {
	unlock := s.locks.Lock(sessionLockKey(sessionID))
	defer unlock()

	var (
		session      *model.CoachingSession
		transitioned bool
	)

	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		session, transitioned, err = s.refresh(ctx, tx, sessionID, s.clock.Now())
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("get session: %w", err)
	}

	return session, transitioned, nil
}

// refresh читает сессию внутри транзакции и сохраняет переход по дедлайну вместе с возвратом
func (s *CoachingService) refresh(ctx context.Context, tx repository.Tx, sessionID string, now time.Time) (*model.CoachingSession, bool, error) {
	session, err := tx.GetSessionForUpdate(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if session == nil {
		return nil, false, ErrSessionNotFound
	}

	outcome := Evaluate(session, now)
	if !outcome.Transitioned {
		return outcome.Session, false, nil
	}

	var refunded int64
	if outcome.RefundOwed {
		refunded, err = s.refund(ctx, tx, outcome.Session, now)
		if err != nil {
			return nil, false, err
		}
	}

	if err := tx.UpdateSession(ctx, outcome.Session); err != nil {
		return nil, false, err
	}

	s.logger.Info("Coaching session deadline lapsed",
		zap.String("session_id", outcome.Session.ID),
		zap.String("from", string(outcome.From)),
		zap.String("to", string(outcome.Session.Status)),
		zap.String("reason", string(outcome.Session.CloseReason)),
		zap.Int64("refunded", refunded),
	)

	return outcome.Session, true, nil
}

// refund возвращает сумму исходного списания по сессии, если возврата ещё не было
func (s *CoachingService) refund(ctx context.Context, tx repository.Tx, session *model.CoachingSession, now time.Time) (int64, error) {
	txns, err := tx.GetSessionTransactions(ctx, session.ID)
	if err != nil {
		return 0, fmt.Errorf("get session transactions: %w", err)
	}

	var use *model.CreditTransaction
	for _, txn := range txns {
		switch txn.Type {
		case model.TransactionTypeRefund:
			return 0, nil
		case model.TransactionTypeUse:
			use = txn
		}
	}

	if use == nil || use.Amount >= 0 {
		s.logger.Warn("No debit found for refunded session",
			zap.String("session_id", session.ID))
		return 0, nil
	}

	sessionID := session.ID
	err = tx.AppendTransaction(ctx, &model.CreditTransaction{
		ID:        uuid.NewString(),
		UserID:    use.UserID,
		Amount:    -use.Amount,
		Type:      model.TransactionTypeRefund,
		SessionID: &sessionID,
		CreatedAt: now,
	})
	if err != nil {
		return 0, err
	}

	return -use.Amount, nil
}

// refreshUserSessions применяет истёкшие дедлайны ко всем сессиям пользователя
func (s *CoachingService) refreshUserSessions(ctx context.Context, userID string) error {
	ids, err := s.listUserSessionIDs(ctx, userID)
	if err != nil {
		return err
	}

	for _, id := range ids {
		if _, _, err := s.loadAndRefresh(ctx, id); err != nil {
			return err
		}
	}

	return nil
}

func (s *CoachingService) listUserSessionIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		ids, err = tx.ListSessionIDsByUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}
	return ids, nil
}

func requireStatus(op string, session *model.CoachingSession, expected model.SessionStatus) error {
	if session.Status != expected {
		return &PreconditionError{
			Operation: op,
			Expected:  expected,
			Actual:    session.Status,
		}
	}
	return nil
}

func sessionLockKey(id string) string {
	return "session:" + id
}

func userLockKey(id string) string {
	return "user:" + id
}
