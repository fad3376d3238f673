package state

import (
	"sync"
)

// Manager управляет состояниями пользователей
type Manager struct {
	mu     sync.RWMutex
	states map[int64]*UserData // telegramID -> UserData
}

// NewManager создаёт новый менеджер состояний
func NewManager() *Manager {
	return &Manager{
		states: make(map[int64]*UserData),
	}
}

// GetState получает текущее состояние пользователя
func (sm *Manager) GetState(telegramID int64) UserState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if userData, exists := sm.states[telegramID]; exists {
		return userData.State
	}
	return StateNone
}

// SetState устанавливает состояние пользователя
func (sm *Manager) SetState(telegramID int64, state UserState) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if state == StateNone {
		delete(sm.states, telegramID)
		return
	}

	userData, exists := sm.states[telegramID]
	if !exists {
		sm.states[telegramID] = &UserData{
			State: state,
			Data:  make(map[string]interface{}),
		}
		return
	}
	userData.State = state
}

// StartDialog сбрасывает прошлый диалог и начинает новый с одним значением
func (sm *Manager) StartDialog(telegramID int64, state UserState, key string, value interface{}) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.states[telegramID] = &UserData{
		State: state,
		Data:  map[string]interface{}{key: value},
	}
}

// GetData получает временные данные пользователя
func (sm *Manager) GetData(telegramID int64, key string) (interface{}, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if userData, exists := sm.states[telegramID]; exists {
		value, ok := userData.Data[key]
		return value, ok
	}
	return nil, false
}

// GetString получает строковое значение из данных диалога
func (sm *Manager) GetString(telegramID int64, key string) (string, bool) {
	value, ok := sm.GetData(telegramID, key)
	if !ok {
		return "", false
	}
	s, ok := value.(string)
	return s, ok
}

// SetData устанавливает временные данные пользователя
func (sm *Manager) SetData(telegramID int64, key string, value interface{}) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.states[telegramID]; !exists {
		sm.states[telegramID] = &UserData{
			State: StateNone,
			Data:  make(map[string]interface{}),
		}
	}
	sm.states[telegramID].Data[key] = value
}

// ClearState очищает состояние и данные пользователя
func (sm *Manager) ClearState(telegramID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.states, telegramID)
}

// GetAllData получает копию временных данных пользователя
func (sm *Manager) GetAllData(telegramID int64) map[string]interface{} {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	userData, exists := sm.states[telegramID]
	if !exists {
		return nil
	}

	dataCopy := make(map[string]interface{}, len(userData.Data))
	for k, v := range userData.Data {
		dataCopy[k] = v
	}
	return dataCopy
}
