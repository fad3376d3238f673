package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/coaching_bot/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore хранилище сессий и кредитов в PostgreSQL
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// RunInTx выполняет fn в транзакции PostgreSQL
func (s *PgStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	// Начинаем транзакцию
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	pgTx := &pgStoreTx{
		sessions: NewSessionRepository(tx),
		credits:  NewCreditRepository(tx),
	}

	if err := fn(ctx, pgTx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

type pgStoreTx struct {
	sessions *SessionRepository
	credits  *CreditRepository
}

func (t *pgStoreTx) GetSessionForUpdate(ctx context.Context, id string) (*model.CoachingSession, error) {
	return t.sessions.GetByIDForUpdate(ctx, id)
}

func (t *pgStoreTx) CreateSession(ctx context.Context, session *model.CoachingSession) error {
	return t.sessions.Create(ctx, session)
}

func (t *pgStoreTx) UpdateSession(ctx context.Context, session *model.CoachingSession) error {
	return t.sessions.Update(ctx, session)
}

func (t *pgStoreTx) ListSessionIDsByUser(ctx context.Context, userID string) ([]string, error) {
	return t.sessions.ListIDsByUser(ctx, userID)
}

func (t *pgStoreTx) ListExpiredSessionIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	return t.sessions.ListExpiredIDs(ctx, now, limit)
}

func (t *pgStoreTx) LockUserCredits(ctx context.Context, userID string) error {
	return t.credits.LockUser(ctx, userID)
}

func (t *pgStoreTx) AppendTransaction(ctx context.Context, txn *model.CreditTransaction) error {
	return t.credits.Append(ctx, txn)
}

func (t *pgStoreTx) GetSessionTransactions(ctx context.Context, sessionID string) ([]*model.CreditTransaction, error) {
	return t.credits.GetBySessionID(ctx, sessionID)
}

func (t *pgStoreTx) GetUserTransactions(ctx context.Context, userID string) ([]*model.CreditTransaction, error) {
	return t.credits.GetByUserID(ctx, userID)
}

func (t *pgStoreTx) GetBalance(ctx context.Context, userID string) (int64, error) {
	return t.credits.GetBalance(ctx, userID)
}
