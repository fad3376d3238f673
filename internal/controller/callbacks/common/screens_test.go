package common

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Freeeeeet/coaching_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/coaching_bot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSessions(n int) []*model.CoachingSession {
	created := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	sessions := make([]*model.CoachingSession, n)
	for i := range sessions {
		sessions[i] = &model.CoachingSession{
			ID:              fmt.Sprintf("session-%d", i),
			InitialQuestion: "Как улучшить композицию?",
			Status:          model.SessionStatusPending,
			CreatedAt:       created,
		}
	}
	return sessions
}

func TestBuildSessionsScreen_Empty(t *testing.T) {
	text, markup := BuildSessionsScreen(nil, 0)
	assert.Contains(t, text, "нет сессий")
	assert.Nil(t, markup)
}

func TestBuildSessionsScreen_Pages(t *testing.T) {
	sessions := makeSessions(12)

	text, markup := BuildSessionsScreen(sessions, 0)
	assert.Contains(t, text, "12 сессий")
	// 5 сессий, ряд пагинации и возврат в меню
	require.Len(t, markup.InlineKeyboard, SessionsPerPage+2)
	assert.Equal(t, callbacktypes.ViewSession+"session-0", markup.InlineKeyboard[0][0].CallbackData)
	last := markup.InlineKeyboard[len(markup.InlineKeyboard)-1]
	assert.Equal(t, callbacktypes.BackToMain, last[0].CallbackData)

	_, markup = BuildSessionsScreen(sessions, 2)
	require.Len(t, markup.InlineKeyboard, 4)
	assert.Equal(t, callbacktypes.ViewSession+"session-10", markup.InlineKeyboard[0][0].CallbackData)

	// Страница за пределами списка прижимается к последней
	_, markup = BuildSessionsScreen(sessions, 99)
	assert.Equal(t, callbacktypes.ViewSession+"session-10", markup.InlineKeyboard[0][0].CallbackData)
}

func TestBuildHistoryScreen(t *testing.T) {
	assert.Contains(t, BuildHistoryScreen(0, nil), "Операций пока нет")

	var history []*model.CreditTransaction
	for i := 0; i < HistoryLimit+3; i++ {
		history = append(history, &model.CreditTransaction{Amount: 1, Type: model.TransactionTypeEarn})
	}

	text := BuildHistoryScreen(50, history)
	assert.Contains(t, text, "50 кредитов")
	assert.Equal(t, HistoryLimit, strings.Count(text, "Начисление"))
	assert.Contains(t, text, "и ещё 3")
}

func TestMainMenuText(t *testing.T) {
	assert.Contains(t, MainMenuText(&model.User{}), "/becomementor")
	assert.NotContains(t, MainMenuText(&model.User{IsMentor: true}), "/becomementor")
}
