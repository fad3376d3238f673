package state

import (
	"sync"
	"testing"

	"github.com/Freeeeeet/coaching_bot/internal/controller/callbacks/callbacktypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_StateLifecycle(t *testing.T) {
	sm := NewManager()

	assert.Equal(t, StateNone, sm.GetState(1))

	sm.SetState(1, StateAwaitingSessionPhoto)
	sm.SetData(1, DataMentorID, "42")
	assert.Equal(t, StateAwaitingSessionPhoto, sm.GetState(1))

	mentorID, ok := sm.GetString(1, DataMentorID)
	require.True(t, ok)
	assert.Equal(t, "42", mentorID)

	sm.SetState(1, StateNone)
	assert.Equal(t, StateNone, sm.GetState(1))
	_, ok = sm.GetData(1, DataMentorID)
	assert.False(t, ok)
}

func TestManager_StartDialogReplacesData(t *testing.T) {
	sm := NewManager()

	sm.StartDialog(1, StateAwaitingSessionPhoto, DataMentorID, "42")
	sm.StartDialog(1, StateAwaitingFollowUpQuestion, DataSessionID, "s-1")

	assert.Equal(t, StateAwaitingFollowUpQuestion, sm.GetState(1))
	assert.Equal(t, map[string]interface{}{DataSessionID: "s-1"}, sm.GetAllData(1))
}

func TestManager_GetStringWrongType(t *testing.T) {
	sm := NewManager()
	sm.SetData(1, DataSessionID, 123)

	_, ok := sm.GetString(1, DataSessionID)
	assert.False(t, ok)
}

func TestManager_GetAllDataReturnsCopy(t *testing.T) {
	sm := NewManager()
	sm.StartDialog(1, StateAwaitingFeedbackPhoto, DataSessionID, "s-1")

	data := sm.GetAllData(1)
	data[DataSessionID] = "changed"

	value, _ := sm.GetString(1, DataSessionID)
	assert.Equal(t, "s-1", value)
	assert.Nil(t, sm.GetAllData(2))
}

func TestManager_ClearStateIsolatesUsers(t *testing.T) {
	sm := NewManager()
	sm.StartDialog(1, StateAwaitingFeedbackPhoto, DataSessionID, "s-1")
	sm.StartDialog(2, StateAwaitingFollowUpAnswer, DataSessionID, "s-2")

	sm.ClearState(1)

	assert.Equal(t, StateNone, sm.GetState(1))
	assert.Equal(t, StateAwaitingFollowUpAnswer, sm.GetState(2))
}

func TestManager_ConcurrentAccess(t *testing.T) {
	sm := NewManager()

	var wg sync.WaitGroup
	for i := int64(0); i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			sm.StartDialog(id, StateAwaitingSessionPhoto, DataMentorID, "m")
			sm.SetData(id, DataSessionID, "s")
			_ = sm.GetAllData(id)
			sm.ClearState(id)
		}(i)
	}
	wg.Wait()

	for i := int64(0); i < 50; i++ {
		assert.Equal(t, StateNone, sm.GetState(i))
	}
}

func TestAdapter_SatisfiesStateManager(t *testing.T) {
	var sm callbacktypes.StateManager = NewAdapter(NewManager())

	sm.StartDialog(7, callbacktypes.UserState(StateAwaitingFollowUpAnswer), DataSessionID, "s-7")
	assert.Equal(t, callbacktypes.UserState(StateAwaitingFollowUpAnswer), sm.GetState(7))

	sm.ClearState(7)
	assert.Equal(t, callbacktypes.UserState(StateNone), sm.GetState(7))
}
