package model

import "time"

type TransactionType string

const (
	TransactionTypeUse    TransactionType = "use"    // Списание за сессию
	TransactionTypeRefund TransactionType = "refund" // Возврат за сессию
	TransactionTypeEarn   TransactionType = "earn"   // Начисление (бонус, пополнение)
)

// CreditTransaction запись в журнале кредитов. Записи только добавляются.
type CreditTransaction struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Amount    int64           `json:"amount"` // Отрицательное значение - списание
	Type      TransactionType `json:"type"`
	SessionID *string         `json:"session_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
