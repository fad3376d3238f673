package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Freeeeeet/coaching_bot/internal/model"
)

var (
	// ErrDuplicateTransaction повторное списание или возврат по одной сессии
	ErrDuplicateTransaction = errors.New("duplicate session transaction")
	// ErrSessionNotFound сессия для обновления не найдена
	ErrSessionNotFound = errors.New("session not found")
)

// Store хранилище сессий и журнала кредитов.
// Все изменения внутри RunInTx применяются целиком или не применяются вовсе.
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx операции, доступные внутри единицы работы
type Tx interface {
	// GetSessionForUpdate возвращает сессию и блокирует её до конца транзакции.
	// Если сессия не найдена, возвращает nil, nil.
	GetSessionForUpdate(ctx context.Context, id string) (*model.CoachingSession, error)
	CreateSession(ctx context.Context, session *model.CoachingSession) error
	UpdateSession(ctx context.Context, session *model.CoachingSession) error
	// ListSessionIDsByUser возвращает ID сессий, где пользователь студент или ментор, новые первыми
	ListSessionIDsByUser(ctx context.Context, userID string) ([]string, error)
	// ListExpiredSessionIDs возвращает незавершённые сессии с истёкшим дедлайном
	ListExpiredSessionIDs(ctx context.Context, now time.Time, limit int) ([]string, error)

	// LockUserCredits сериализует проверки баланса пользователя до конца транзакции
	LockUserCredits(ctx context.Context, userID string) error
	AppendTransaction(ctx context.Context, txn *model.CreditTransaction) error
	GetSessionTransactions(ctx context.Context, sessionID string) ([]*model.CreditTransaction, error)
	// GetUserTransactions возвращает историю пользователя, новые первыми
	GetUserTransactions(ctx context.Context, userID string) ([]*model.CreditTransaction, error)
	// GetBalance считает баланс суммой всех транзакций пользователя
	GetBalance(ctx context.Context, userID string) (int64, error)
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*PgStore)(nil)
	_ Tx    = (*memoryTx)(nil)
	_ Tx    = (*pgStoreTx)(nil)
)
