package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/coaching_bot/internal/model"
)

// MemoryStore хранилище в памяти. Изменения транзакции копятся отдельно
// и применяются при коммите под мьютексом хранилища.
// Блокировки строк не делает: сериализацию обеспечивает сервис.
type MemoryStore struct {
	mu           sync.RWMutex
	sessions     map[string]*memorySession
	transactions []*model.CreditTransaction
	seq          int64
}

type memorySession struct {
	session *model.CoachingSession
	seq     int64
}

// NewMemoryStore создаёт пустое хранилище в памяти
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memorySession),
	}
}

// RunInTx выполняет fn и применяет накопленные изменения, если fn не вернула ошибку
func (s *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	tx := &memoryTx{
		store:    s,
		created:  make(map[string]*model.CoachingSession),
		updated:  make(map[string]*model.CoachingSession),
		appended: nil,
	}

	if err := fn(ctx, tx); err != nil {
		return err
	}

	return s.commit(tx)
}

func (s *MemoryStore) commit(tx *memoryTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range tx.created {
		if _, exists := s.sessions[id]; exists {
			return fmt.Errorf("create session %s: already exists", id)
		}
	}
	for id := range tx.updated {
		if _, exists := s.sessions[id]; !exists {
			if _, created := tx.created[id]; !created {
				return fmt.Errorf("update session %s: %w", id, ErrSessionNotFound)
			}
		}
	}
	for i, txn := range tx.appended {
		if err := s.checkUniqueLocked(txn, tx.appended[:i]); err != nil {
			return err
		}
	}

	for _, id := range tx.createdOrder {
		s.seq++
		s.sessions[id] = &memorySession{session: tx.created[id].Clone(), seq: s.seq}
	}
	for id, session := range tx.updated {
		s.sessions[id].session = session.Clone()
	}
	for _, txn := range tx.appended {
		s.transactions = append(s.transactions, cloneTransaction(txn))
	}

	return nil
}

// checkUniqueLocked не даёт записать второе списание или второй возврат по сессии
func (s *MemoryStore) checkUniqueLocked(txn *model.CreditTransaction, pending []*model.CreditTransaction) error {
	if txn.SessionID == nil || txn.Type == model.TransactionTypeEarn {
		return nil
	}

	same := func(other *model.CreditTransaction) bool {
		return other.SessionID != nil && *other.SessionID == *txn.SessionID && other.Type == txn.Type
	}
	for _, existing := range s.transactions {
		if same(existing) {
			return fmt.Errorf("%s for session %s: %w", txn.Type, *txn.SessionID, ErrDuplicateTransaction)
		}
	}
	for _, existing := range pending {
		if same(existing) {
			return fmt.Errorf("%s for session %s: %w", txn.Type, *txn.SessionID, ErrDuplicateTransaction)
		}
	}
	return nil
}

type memoryTx struct {
	store        *MemoryStore
	created      map[string]*model.CoachingSession
	createdOrder []string
	updated      map[string]*model.CoachingSession
	appended     []*model.CreditTransaction
}

func (t *memoryTx) GetSessionForUpdate(_ context.Context, id string) (*model.CoachingSession, error) {
	if session, ok := t.updated[id]; ok {
		return session.Clone(), nil
	}
	if session, ok := t.created[id]; ok {
		return session.Clone(), nil
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	stored, ok := t.store.sessions[id]
	if !ok {
		return nil, nil
	}
	return stored.session.Clone(), nil
}

func (t *memoryTx) CreateSession(_ context.Context, session *model.CoachingSession) error {
	if _, ok := t.created[session.ID]; ok {
		return fmt.Errorf("create session %s: already exists", session.ID)
	}
	t.created[session.ID] = session.Clone()
	t.createdOrder = append(t.createdOrder, session.ID)
	return nil
}

func (t *memoryTx) UpdateSession(_ context.Context, session *model.CoachingSession) error {
	if _, ok := t.created[session.ID]; ok {
		t.created[session.ID] = session.Clone()
		return nil
	}

	t.store.mu.RLock()
	_, exists := t.store.sessions[session.ID]
	t.store.mu.RUnlock()
	if !exists {
		return fmt.Errorf("update session %s: %w", session.ID, ErrSessionNotFound)
	}

	t.updated[session.ID] = session.Clone()
	return nil
}

func (t *memoryTx) ListSessionIDsByUser(_ context.Context, userID string) ([]string, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	var found []*memorySession
	for _, stored := range t.store.sessions {
		if stored.session.IsParticipant(userID) {
			found = append(found, stored)
		}
	}
	sortNewestFirst(found)

	ids := make([]string, 0, len(found)+len(t.createdOrder))
	for i := len(t.createdOrder) - 1; i >= 0; i-- {
		if t.created[t.createdOrder[i]].IsParticipant(userID) {
			ids = append(ids, t.createdOrder[i])
		}
	}
	for _, stored := range found {
		ids = append(ids, stored.session.ID)
	}
	return ids, nil
}

func (t *memoryTx) ListExpiredSessionIDs(_ context.Context, now time.Time, limit int) ([]string, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	var found []*memorySession
	for _, stored := range t.store.sessions {
		session := stored.session
		if !session.Status.IsTerminal() && now.After(session.DeadlineAt) {
			found = append(found, stored)
		}
	}
	sort.Slice(found, func(i, j int) bool {
		return found[i].session.DeadlineAt.Before(found[j].session.DeadlineAt)
	})

	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}

	ids := make([]string, 0, len(found))
	for _, stored := range found {
		ids = append(ids, stored.session.ID)
	}
	return ids, nil
}

func (t *memoryTx) LockUserCredits(_ context.Context, _ string) error {
	return nil
}

func (t *memoryTx) AppendTransaction(_ context.Context, txn *model.CreditTransaction) error {
	t.appended = append(t.appended, cloneTransaction(txn))
	return nil
}

func (t *memoryTx) GetSessionTransactions(_ context.Context, sessionID string) ([]*model.CreditTransaction, error) {
	var result []*model.CreditTransaction
	match := func(txn *model.CreditTransaction) bool {
		return txn.SessionID != nil && *txn.SessionID == sessionID
	}

	t.store.mu.RLock()
	for _, txn := range t.store.transactions {
		if match(txn) {
			result = append(result, cloneTransaction(txn))
		}
	}
	t.store.mu.RUnlock()

	for _, txn := range t.appended {
		if match(txn) {
			result = append(result, cloneTransaction(txn))
		}
	}
	return result, nil
}

func (t *memoryTx) GetUserTransactions(_ context.Context, userID string) ([]*model.CreditTransaction, error) {
	var result []*model.CreditTransaction

	t.store.mu.RLock()
	for _, txn := range t.store.transactions {
		if txn.UserID == userID {
			result = append(result, cloneTransaction(txn))
		}
	}
	t.store.mu.RUnlock()

	for _, txn := range t.appended {
		if txn.UserID == userID {
			result = append(result, cloneTransaction(txn))
		}
	}

	// Журнал хранится в порядке добавления, разворачиваем: новые первыми
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (t *memoryTx) GetBalance(ctx context.Context, userID string) (int64, error) {
	txns, err := t.GetUserTransactions(ctx, userID)
	if err != nil {
		return 0, err
	}

	var balance int64
	for _, txn := range txns {
		balance += txn.Amount
	}
	return balance, nil
}

func sortNewestFirst(sessions []*memorySession) {
	sort.Slice(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if a.session.CreatedAt.Equal(b.session.CreatedAt) {
			return a.seq > b.seq
		}
		return a.session.CreatedAt.After(b.session.CreatedAt)
	})
}

func cloneTransaction(txn *model.CreditTransaction) *model.CreditTransaction {
	c := *txn
	if txn.SessionID != nil {
		id := *txn.SessionID
		c.SessionID = &id
	}
	return &c
}
