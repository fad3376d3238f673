package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/coaching_bot/internal/model"
	"github.com/Freeeeeet/coaching_bot/internal/repository/base"
)

type CreditRepository struct {
	*base.Repository
}

func NewCreditRepository(db base.DBTX) *CreditRepository {
	return &CreditRepository{Repository: base.NewRepository(db)}
}

// Append добавляет запись в журнал кредитов
func (r *CreditRepository) Append(ctx context.Context, txn *model.CreditTransaction) error {
	query := `
		INSERT INTO credit_transactions (id, user_id, amount, type, session_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.DB().Exec(ctx, query,
		txn.ID,
		txn.UserID,
		txn.Amount,
		txn.Type,
		txn.SessionID,
		txn.CreatedAt,
	)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("append %s transaction: %w", txn.Type, ErrDuplicateTransaction)
		}
		return fmt.Errorf("append %s transaction: %w", txn.Type, err)
	}

	return nil
}

// GetBySessionID получает все записи по сессии
func (r *CreditRepository) GetBySessionID(ctx context.Context, sessionID string) ([]*model.CreditTransaction, error) {
	query := `
		SELECT id, user_id, amount, type, session_id, created_at
		FROM credit_transactions
		WHERE session_id = $1
		ORDER BY created_at ASC, seq ASC
	`

	return r.query(ctx, "get transactions by session", query, sessionID)
}

// GetByUserID получает историю пользователя, новые первыми
func (r *CreditRepository) GetByUserID(ctx context.Context, userID string) ([]*model.CreditTransaction, error) {
	query := `
		SELECT id, user_id, amount, type, session_id, created_at
		FROM credit_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, seq DESC
	`

	return r.query(ctx, "get transactions by user", query, userID)
}

// GetBalance считает баланс пользователя
func (r *CreditRepository) GetBalance(ctx context.Context, userID string) (int64, error) {
	query := `SELECT COALESCE(SUM(amount), 0)::bigint FROM credit_transactions WHERE user_id = $1`

	var balance int64
	if err := r.QueryRow(ctx, query, userID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}

// LockUser берёт advisory-блокировку на баланс пользователя до конца транзакции
func (r *CreditRepository) LockUser(ctx context.Context, userID string) error {
	if _, err := r.DB().Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", userID); err != nil {
		return fmt.Errorf("lock user credits: %w", err)
	}
	return nil
}

func (r *CreditRepository) query(ctx context.Context, op, query string, args ...any) ([]*model.CreditTransaction, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var txns []*model.CreditTransaction
	for rows.Next() {
		var txn model.CreditTransaction
		err := rows.Scan(
			&txn.ID,
			&txn.UserID,
			&txn.Amount,
			&txn.Type,
			&txn.SessionID,
			&txn.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, &txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return txns, nil
}
