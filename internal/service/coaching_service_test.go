package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/coaching_bot/internal/model"
	"github.com/Freeeeeet/coaching_bot/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	student = "101"
	mentor  = "202"

	question = "Как лучше передать объём яблока?"
	comment  = "Добавьте рефлекс снизу и усильте тень."
	followUp = "А какой цвет взять для рефлекса?"
	answer   = "Тёплый охристый, отражённый от стола."
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T) (*CoachingService, *manualClock) {
	t.Helper()

	clock := &manualClock{now: baseTime}
	svc := NewCoachingService(repository.NewMemoryStore(), zap.NewNop(), WithClock(clock))
	return svc, clock
}

func fund(t *testing.T, svc *CoachingService, userID string, amount int64) {
	t.Helper()

	_, err := svc.GrantCredits(context.Background(), userID, amount)
	require.NoError(t, err)
}

func createSession(t *testing.T, svc *CoachingService, cost int64) *model.CoachingSession {
	t.Helper()

	session, err := svc.CreateSession(context.Background(), CreateSessionInput{
		StudentID:        student,
		MentorID:         mentor,
		OriginalImageURL: "https://example.com/apple.png",
		InitialQuestion:  question,
		Cost:             cost,
	})
	require.NoError(t, err)
	return session
}

func balance(t *testing.T, svc *CoachingService, userID string) int64 {
	t.Helper()

	b, err := svc.GetCreditBalance(context.Background(), userID)
	require.NoError(t, err)
	return b
}

func sessionTransactions(t *testing.T, svc *CoachingService, sessionID string) []*model.CreditTransaction {
	t.Helper()

	history, err := svc.GetTransactionHistory(context.Background(), student)
	require.NoError(t, err)

	var result []*model.CreditTransaction
	for _, txn := range history {
		if txn.SessionID != nil && *txn.SessionID == sessionID {
			result = append(result, txn)
		}
	}
	return result
}

func sumAmounts(txns []*model.CreditTransaction) int64 {
	var sum int64
	for _, txn := range txns {
		sum += txn.Amount
	}
	return sum
}

func TestCreateSession_DebitsStudent(t *testing.T) {
	svc, _ := newTestService(t)
	fund(t, svc, student, 50)

	session := createSession(t, svc, 10)

	assert.Equal(t, int64(40), balance(t, svc, student))
	assert.Equal(t, model.SessionStatusPending, session.Status)
	assert.Equal(t, session.CreatedAt.Add(24*time.Hour), session.DeadlineAt)
	assert.NotEmpty(t, session.ID)

	txns := sessionTransactions(t, svc, session.ID)
	require.Len(t, txns, 1)
	assert.Equal(t, model.TransactionTypeUse, txns[0].Type)
	assert.Equal(t, int64(-10), txns[0].Amount)
}

func TestMentorTimeout_Refunds(t *testing.T) {
	svc, clock := newTestService(t)
	fund(t, svc, student, 50)
	session := createSession(t, svc, 10)

	clock.Advance(25 * time.Hour)

	got, err := svc.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusRefunded, got.Status)
	assert.Equal(t, model.CloseReasonMentorTimeout, got.CloseReason)
	require.NotNil(t, got.ClosedAt)
	assert.Equal(t, clock.Now(), *got.ClosedAt)

	assert.Equal(t, int64(50), balance(t, svc, student))

	txns := sessionTransactions(t, svc, session.ID)
	require.Len(t, txns, 2)
	assert.Equal(t, model.TransactionTypeRefund, txns[0].Type)
	assert.Equal(t, int64(10), txns[0].Amount)
	assert.Equal(t, model.TransactionTypeUse, txns[1].Type)
}

func TestFollowUpWindowExpired_Closes(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	fund(t, svc, student, 50)
	session := createSession(t, svc, 10)

	clock.Advance(time.Hour)
	answered, err := svc.SubmitFeedback(ctx, session.ID, model.Feedback{
		FeedbackImageURL: "https://example.com/apple-fixed.png",
		Comment:          comment,
	})
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusAnswered, answered.Status)
	require.NotNil(t, answered.AnsweredAt)
	assert.Equal(t, baseTime.Add(time.Hour), *answered.AnsweredAt)
	assert.Equal(t, baseTime.Add(49*time.Hour), answered.DeadlineAt)

	clock.Advance(49 * time.Hour)

	got, err := svc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusClosed, got.Status)
	assert.Equal(t, model.CloseReasonFollowupWindowExpired, got.CloseReason)
	assert.NotNil(t, got.Feedback)
	assert.Nil(t, got.FollowUp)
	assert.Equal(t, int64(40), balance(t, svc, student))
	assert.Equal(t, int64(-10), sumAmounts(sessionTransactions(t, svc, session.ID)))
}

func TestFullExchange_Completes(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	fund(t, svc, student, 50)
	session := createSession(t, svc, 10)

	clock.Advance(2 * time.Hour)
	_, err := svc.SubmitFeedback(ctx, session.ID, model.Feedback{FeedbackImageURL: "img", Comment: comment})
	require.NoError(t, err)

	clock.Advance(10 * time.Hour)
	pending, err := svc.SubmitFollowUp(ctx, session.ID, followUp)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusFollowupPending, pending.Status)
	require.NotNil(t, pending.FollowUp)
	assert.Equal(t, clock.Now(), pending.FollowUp.QuestionAt)
	assert.Equal(t, clock.Now().Add(24*time.Hour), pending.DeadlineAt)

	clock.Advance(23 * time.Hour)
	completed, err := svc.ReplyToFollowUp(ctx, session.ID, answer)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusCompleted, completed.Status)
	assert.Equal(t, model.CloseReasonCompleted, completed.CloseReason)
	assert.Equal(t, answer, completed.FollowUp.Answer)
	require.NotNil(t, completed.FollowUp.AnswerAt)
	require.NotNil(t, completed.ClosedAt)
	assert.Equal(t, clock.Now(), *completed.ClosedAt)

	// Завершённая сессия не меняется со временем
	clock.Advance(1000 * time.Hour)
	got, err := svc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusCompleted, got.Status)
	assert.Equal(t, int64(40), balance(t, svc, student))
}

func TestFollowUpTimeout_Refunds(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	fund(t, svc, student, 50)
	session := createSession(t, svc, 10)

	clock.Advance(time.Hour)
	_, err := svc.SubmitFeedback(ctx, session.ID, model.Feedback{FeedbackImageURL: "img", Comment: comment})
	require.NoError(t, err)
	clock.Advance(time.Hour)
	_, err = svc.SubmitFollowUp(ctx, session.ID, followUp)
	require.NoError(t, err)

	clock.Advance(24*time.Hour + time.Minute)

	got, err := svc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusRefunded, got.Status)
	assert.Equal(t, model.CloseReasonFollowupTimeout, got.CloseReason)
	assert.NotNil(t, got.Feedback)
	assert.NotNil(t, got.FollowUp)
	assert.Equal(t, int64(50), balance(t, svc, student))
	assert.Equal(t, int64(0), sumAmounts(sessionTransactions(t, svc, session.ID)))
}

func TestSubmitFeedback_Twice(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	fund(t, svc, student, 50)
	session := createSession(t, svc, 10)

	first, err := svc.SubmitFeedback(ctx, session.ID, model.Feedback{FeedbackImageURL: "img-1", Comment: comment})
	require.NoError(t, err)

	_, err = svc.SubmitFeedback(ctx, session.ID, model.Feedback{FeedbackImageURL: "img-2", Comment: comment + " Ещё."})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	var precondition *PreconditionError
	require.ErrorAs(t, err, &precondition)
	assert.Equal(t, model.SessionStatusPending, precondition.Expected)
	assert.Equal(t, model.SessionStatusAnswered, precondition.Actual)

	got, err := svc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Feedback, got.Feedback)
	assert.Equal(t, first.DeadlineAt, got.DeadlineAt)
}

func TestCreateSession_InsufficientCredits(t *testing.T) {
	svc, _ := newTestService(t)
	fund(t, svc, student, 5)

	_, err := svc.CreateSession(context.Background(), CreateSessionInput{
		StudentID:        student,
		MentorID:         mentor,
		OriginalImageURL: "img",
		InitialQuestion:  question,
		Cost:             10,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientCredits)

	var insufficient *InsufficientCreditsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(5), insufficient.Balance)
	assert.Equal(t, int64(10), insufficient.Cost)

	assert.Equal(t, int64(5), balance(t, svc, student))
	sessions, err := svc.ListUserSessions(context.Background(), student)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestCreateSession_ExactBalance(t *testing.T) {
	svc, _ := newTestService(t)
	fund(t, svc, student, 10)

	createSession(t, svc, 10)

	assert.Equal(t, int64(0), balance(t, svc, student))
}

func TestCreateSession_InvalidInput(t *testing.T) {
	valid := CreateSessionInput{
		StudentID:        student,
		MentorID:         mentor,
		OriginalImageURL: "img",
		InitialQuestion:  question,
		Cost:             10,
	}

	tests := []struct {
		name   string
		mutate func(in *CreateSessionInput)
	}{
		{"empty student", func(in *CreateSessionInput) { in.StudentID = "" }},
		{"empty mentor", func(in *CreateSessionInput) { in.MentorID = " " }},
		{"self coaching", func(in *CreateSessionInput) { in.MentorID = in.StudentID }},
		{"no image", func(in *CreateSessionInput) { in.OriginalImageURL = "" }},
		{"short question", func(in *CreateSessionInput) { in.InitialQuestion = "Как?" }},
		{"zero cost", func(in *CreateSessionInput) { in.Cost = 0 }},
		{"negative cost", func(in *CreateSessionInput) { in.Cost = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			fund(t, svc, student, 50)

			in := valid
			tt.mutate(&in)

			_, err := svc.CreateSession(context.Background(), in)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, int64(50), balance(t, svc, student))
		})
	}
}

func TestRefundUsesRecordedCost(t *testing.T) {
	svc, clock := newTestService(t)
	fund(t, svc, student, 100)

	session := createSession(t, svc, 37)
	assert.Equal(t, int64(63), balance(t, svc, student))

	clock.Advance(48 * time.Hour)

	got, err := svc.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusRefunded, got.Status)
	assert.Equal(t, int64(100), balance(t, svc, student))

	txns := sessionTransactions(t, svc, session.ID)
	require.Len(t, txns, 2)
	assert.Equal(t, int64(37), txns[0].Amount)
}

func TestRefundIssuedOnce(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	fund(t, svc, student, 50)
	session := createSession(t, svc, 10)

	clock.Advance(25 * time.Hour)
	for i := 0; i < 5; i++ {
		_, err := svc.GetSession(ctx, session.ID)
		require.NoError(t, err)
		_, err = svc.ListUserSessions(ctx, student)
		require.NoError(t, err)
		clock.Advance(time.Hour)
	}

	assert.Equal(t, int64(50), balance(t, svc, student))
	assert.Len(t, sessionTransactions(t, svc, session.ID), 2)
}

func TestGuardEnforcement(t *testing.T) {
	ctx := context.Background()

	type step func(t *testing.T, svc *CoachingService, clock *manualClock, id string)

	feedback := func(t *testing.T, svc *CoachingService, _ *manualClock, id string) {
		_, err := svc.SubmitFeedback(ctx, id, model.Feedback{FeedbackImageURL: "img", Comment: comment})
		require.NoError(t, err)
	}
	ask := func(t *testing.T, svc *CoachingService, _ *manualClock, id string) {
		_, err := svc.SubmitFollowUp(ctx, id, followUp)
		require.NoError(t, err)
	}
	reply := func(t *testing.T, svc *CoachingService, _ *manualClock, id string) {
		_, err := svc.ReplyToFollowUp(ctx, id, answer)
		require.NoError(t, err)
	}
	lapse := func(_ *testing.T, _ *CoachingService, clock *manualClock, _ string) {
		clock.Advance(100 * time.Hour)
	}

	commands := map[string]func(svc *CoachingService, id string) error{
		"feedback": func(svc *CoachingService, id string) error {
			_, err := svc.SubmitFeedback(ctx, id, model.Feedback{FeedbackImageURL: "img", Comment: comment})
			return err
		},
		"followup": func(svc *CoachingService, id string) error {
			_, err := svc.SubmitFollowUp(ctx, id, followUp)
			return err
		},
		"reply": func(svc *CoachingService, id string) error {
			_, err := svc.ReplyToFollowUp(ctx, id, answer)
			return err
		},
	}

	tests := []struct {
		name    string
		steps   []step
		status  model.SessionStatus
		allowed string
	}{
		{"pending", nil, model.SessionStatusPending, "feedback"},
		{"answered", []step{feedback}, model.SessionStatusAnswered, "followup"},
		{"followup pending", []step{feedback, ask}, model.SessionStatusFollowupPending, "reply"},
		{"completed", []step{feedback, ask, reply}, model.SessionStatusCompleted, ""},
		{"refunded", []step{lapse}, model.SessionStatusRefunded, ""},
		{"closed", []step{feedback, lapse}, model.SessionStatusClosed, ""},
	}

	for _, tt := range tests {
		for name, run := range commands {
			if name == tt.allowed {
				continue
			}
			t.Run(tt.name+"/"+name, func(t *testing.T) {
				svc, clock := newTestService(t)
				fund(t, svc, student, 50)
				session := createSession(t, svc, 10)
				for _, s := range tt.steps {
					s(t, svc, clock, session.ID)
				}

				before, err := svc.GetSession(ctx, session.ID)
				require.NoError(t, err)
				require.Equal(t, tt.status, before.Status)
				balanceBefore := balance(t, svc, student)

				err = run(svc, session.ID)
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrPreconditionFailed)

				after, err := svc.GetSession(ctx, session.ID)
				require.NoError(t, err)
				assert.Equal(t, before, after)
				assert.Equal(t, balanceBefore, balance(t, svc, student))
			})
		}
	}
}

func TestCommandAfterDeadlinePersistsTimeout(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	fund(t, svc, student, 50)
	session := createSession(t, svc, 10)

	clock.Advance(30 * time.Hour)

	_, err := svc.SubmitFeedback(ctx, session.ID, model.Feedback{FeedbackImageURL: "img", Comment: comment})
	var precondition *PreconditionError
	require.ErrorAs(t, err, &precondition)
	assert.Equal(t, model.SessionStatusRefunded, precondition.Actual)

	lapsedAt := clock.Now()
	clock.Advance(time.Hour)

	got, err := svc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ClosedAt)
	assert.Equal(t, lapsedAt, *got.ClosedAt)
	assert.Equal(t, int64(50), balance(t, svc, student))
}

func TestSessionNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.SubmitFeedback(ctx, "missing", model.Feedback{FeedbackImageURL: "img", Comment: comment})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.SubmitFollowUp(ctx, "missing", followUp)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.ReplyToFollowUp(ctx, "missing", answer)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCommandValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	fund(t, svc, student, 50)
	session := createSession(t, svc, 10)

	_, err := svc.SubmitFeedback(ctx, session.ID, model.Feedback{FeedbackImageURL: "", Comment: comment})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.SubmitFeedback(ctx, session.ID, model.Feedback{FeedbackImageURL: "img", Comment: "коротко"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.SubmitFeedback(ctx, session.ID, model.Feedback{FeedbackImageURL: "img", Comment: comment})
	require.NoError(t, err)

	long := make([]rune, 301)
	for i := range long {
		long[i] = 'я'
	}
	_, err = svc.SubmitFollowUp(ctx, session.ID, string(long))
	assert.ErrorIs(t, err, ErrInvalidInput)

	got, err := svc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusAnswered, got.Status)
}

func TestListUserSessions(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	fund(t, svc, student, 50)

	older := createSession(t, svc, 10)
	clock.Advance(time.Hour)
	newer := createSession(t, svc, 10)

	clock.Advance(23*time.Hour + time.Minute)

	sessions, err := svc.ListUserSessions(ctx, student)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, newer.ID, sessions[0].ID)
	assert.Equal(t, model.SessionStatusPending, sessions[0].Status)
	assert.Equal(t, older.ID, sessions[1].ID)
	assert.Equal(t, model.SessionStatusRefunded, sessions[1].Status)

	mentorSessions, err := svc.ListUserSessions(ctx, mentor)
	require.NoError(t, err)
	assert.Len(t, mentorSessions, 2)

	others, err := svc.ListUserSessions(ctx, "999")
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestTransactionHistoryNewestFirst(t *testing.T) {
	svc, clock := newTestService(t)
	fund(t, svc, student, 50)
	clock.Advance(time.Minute)
	session := createSession(t, svc, 10)
	clock.Advance(25 * time.Hour)

	history, err := svc.GetTransactionHistory(context.Background(), student)
	require.NoError(t, err)
	require.Len(t, history, 3)

	assert.Equal(t, model.TransactionTypeRefund, history[0].Type)
	assert.Equal(t, model.TransactionTypeUse, history[1].Type)
	assert.Equal(t, model.TransactionTypeEarn, history[2].Type)
	assert.Nil(t, history[2].SessionID)
	require.NotNil(t, history[0].SessionID)
	assert.Equal(t, session.ID, *history[0].SessionID)
}

func TestGrantCredits_Invalid(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GrantCredits(context.Background(), student, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.GrantCredits(context.Background(), "", 10)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGrantWelcomeCredits_Once(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	txn, err := svc.GrantWelcomeCredits(ctx, student, 50)
	require.NoError(t, err)
	require.NotNil(t, txn)
	assert.Equal(t, model.TransactionTypeEarn, txn.Type)

	txn, err = svc.GrantWelcomeCredits(ctx, student, 50)
	require.NoError(t, err)
	assert.Nil(t, txn)
	assert.Equal(t, int64(50), balance(t, svc, student))

	_, err = svc.GrantWelcomeCredits(ctx, student, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSweepExpired(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	fund(t, svc, student, 100)

	toRefund := createSession(t, svc, 10)
	toClose := createSession(t, svc, 10)
	_, err := svc.SubmitFeedback(ctx, toClose.ID, model.Feedback{FeedbackImageURL: "img", Comment: comment})
	require.NoError(t, err)

	clock.Advance(10 * time.Hour)
	fresh := createSession(t, svc, 10)

	clock.Advance(20 * time.Hour)

	swept, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	require.Len(t, swept, 1)
	assert.Equal(t, toRefund.ID, swept[0].ID)
	assert.Equal(t, model.SessionStatusRefunded, swept[0].Status)

	clock.Advance(20 * time.Hour)

	swept, err = svc.SweepExpired(ctx)
	require.NoError(t, err)
	require.Len(t, swept, 2)
	ids := []string{swept[0].ID, swept[1].ID}
	assert.ElementsMatch(t, []string{toClose.ID, fresh.ID}, ids)

	swept, err = svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Empty(t, swept)

	assert.Equal(t, int64(100-10), balance(t, svc, student))
}

// brokenStore отказывает в чтении выбранных сессий
type brokenStore struct {
	repository.Store
	broken map[string]bool
}

func (s *brokenStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return s.Store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return fn(ctx, &brokenTx{Tx: tx, broken: s.broken})
	})
}

type brokenTx struct {
	repository.Tx
	broken map[string]bool
}

func (t *brokenTx) GetSessionForUpdate(ctx context.Context, id string) (*model.CoachingSession, error) {
	if t.broken[id] {
		return nil, errBrokenSession
	}
	return t.Tx.GetSessionForUpdate(ctx, id)
}

var errBrokenSession = errors.New("storage unavailable")

func TestSweepExpired_ContinuesAfterFailure(t *testing.T) {
	clock := &manualClock{now: baseTime}
	store := &brokenStore{Store: repository.NewMemoryStore(), broken: make(map[string]bool)}
	svc := NewCoachingService(store, zap.NewNop(), WithClock(clock))
	ctx := context.Background()
	fund(t, svc, student, 100)

	first := createSession(t, svc, 10)
	clock.Advance(time.Minute)
	second := createSession(t, svc, 10)
	clock.Advance(time.Minute)
	third := createSession(t, svc, 10)

	clock.Advance(25 * time.Hour)
	store.broken[first.ID] = true

	swept, err := svc.SweepExpired(ctx)
	require.ErrorIs(t, err, errBrokenSession)
	assert.Contains(t, err.Error(), first.ID)
	require.Len(t, swept, 2)
	assert.Equal(t, second.ID, swept[0].ID)
	assert.Equal(t, third.ID, swept[1].ID)

	delete(store.broken, first.ID)
	swept, err = svc.SweepExpired(ctx)
	require.NoError(t, err)
	require.Len(t, swept, 1)
	assert.Equal(t, first.ID, swept[0].ID)
	assert.Equal(t, int64(100), balance(t, svc, student))
}

func TestLedgerConservation_RandomHistories(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	ctx := context.Background()

	for run := 0; run < 50; run++ {
		svc, clock := newTestService(t)
		fund(t, svc, student, 1000)

		costs := map[string]int64{}
		for i := 0; i < 5; i++ {
			cost := int64(rnd.Intn(20) + 1)
			session := createSession(t, svc, cost)
			costs[session.ID] = cost
		}

		for step := 0; step < 40; step++ {
			var id string
			for candidate := range costs {
				id = candidate
				if rnd.Intn(2) == 0 {
					break
				}
			}

			switch rnd.Intn(5) {
			case 0:
				_, _ = svc.SubmitFeedback(ctx, id, model.Feedback{FeedbackImageURL: "img", Comment: comment})
			case 1:
				_, _ = svc.SubmitFollowUp(ctx, id, followUp)
			case 2:
				_, _ = svc.ReplyToFollowUp(ctx, id, answer)
			case 3:
				_, err := svc.GetSession(ctx, id)
				require.NoError(t, err)
			case 4:
				clock.Advance(time.Duration(rnd.Intn(30)) * time.Hour)
			}

			for sessionID, cost := range costs {
				sum := sumAmounts(sessionTransactions(t, svc, sessionID))
				assert.Contains(t, []int64{0, -cost}, sum, "session %s", sessionID)
			}
		}

		var total int64
		sessions, err := svc.ListUserSessions(ctx, student)
		require.NoError(t, err)
		for _, session := range sessions {
			sum := sumAmounts(sessionTransactions(t, svc, session.ID))
			if session.Status == model.SessionStatusRefunded {
				assert.Equal(t, int64(0), sum)
			} else {
				assert.Equal(t, -costs[session.ID], sum)
			}
			total += sum
		}
		assert.Equal(t, 1000+total, balance(t, svc, student))
	}
}

func TestDeadlineMovesForward(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	fund(t, svc, student, 50)
	session := createSession(t, svc, 10)
	deadlines := []time.Time{session.DeadlineAt}

	clock.Advance(23 * time.Hour)
	answered, err := svc.SubmitFeedback(ctx, session.ID, model.Feedback{FeedbackImageURL: "img", Comment: comment})
	require.NoError(t, err)
	deadlines = append(deadlines, answered.DeadlineAt)

	clock.Advance(47 * time.Hour)
	pending, err := svc.SubmitFollowUp(ctx, session.ID, followUp)
	require.NoError(t, err)
	deadlines = append(deadlines, pending.DeadlineAt)

	for i := 1; i < len(deadlines); i++ {
		assert.True(t, deadlines[i].After(deadlines[i-1]))
	}
}

func TestConcurrentFeedbackSingleWinner(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	fund(t, svc, student, 50)
	session := createSession(t, svc, 10)

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SubmitFeedback(ctx, session.ID, model.Feedback{FeedbackImageURL: "img", Comment: comment})

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if errors.Is(err, ErrPreconditionFailed) {
				failures++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, failures)
	assert.Zero(t, svc.locks.size())
}

func TestConcurrentReadsRefundOnce(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	fund(t, svc, student, 50)
	session := createSession(t, svc, 10)
	clock.Advance(25 * time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.GetSession(ctx, session.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), balance(t, svc, student))
	assert.Len(t, sessionTransactions(t, svc, session.ID), 2)
}

func TestConcurrentCreateNeverOverdraws(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	fund(t, svc, student, 30)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateSession(ctx, CreateSessionInput{
				StudentID:        student,
				MentorID:         mentor,
				OriginalImageURL: "img",
				InitialQuestion:  question,
				Cost:             10,
			})
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, ErrInsufficientCredits)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, created)
	assert.Equal(t, int64(0), balance(t, svc, student))
}
