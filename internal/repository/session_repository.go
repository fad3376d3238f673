package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/coaching_bot/internal/model"
	"github.com/Freeeeeet/coaching_bot/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const sessionColumns = `
	id, student_id, mentor_id, original_image_url, initial_question, status, close_reason,
	created_at, deadline_at, answered_at, closed_at,
	feedback_image_url, feedback_comment,
	followup_question, followup_question_at, followup_answer, followup_answer_at
`

type SessionRepository struct {
	*base.Repository
}

func NewSessionRepository(db base.DBTX) *SessionRepository {
	return &SessionRepository{Repository: base.NewRepository(db)}
}

// Create сохраняет новую сессию
func (r *SessionRepository) Create(ctx context.Context, session *model.CoachingSession) error {
	query := `
		INSERT INTO coaching_sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.DB().Exec(ctx, query, sessionArgs(session)...)
	if err != nil {
		return fmt.Errorf("create coaching session: %w", err)
	}

	return nil
}

// GetByIDForUpdate получает сессию и блокирует строку до конца транзакции.
// ID не в формате UUID не может существовать в таблице: возвращает nil, nil.
func (r *SessionRepository) GetByIDForUpdate(ctx context.Context, id string) (*model.CoachingSession, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	query := `SELECT ` + sessionColumns + ` FROM coaching_sessions WHERE id = $1 FOR UPDATE`

	session, err := scanSession(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get coaching session by id: %w", err)
	}

	return session, nil
}

// Update перезаписывает изменяемые поля сессии
func (r *SessionRepository) Update(ctx context.Context, session *model.CoachingSession) error {
	query := `
		UPDATE coaching_sessions
		SET status = $2, close_reason = $3, deadline_at = $4, answered_at = $5, closed_at = $6,
			feedback_image_url = $7, feedback_comment = $8,
			followup_question = $9, followup_question_at = $10, followup_answer = $11, followup_answer_at = $12
		WHERE id = $1
	`

	// id, status, close_reason, затем deadline_at и всё после него
	args := sessionArgs(session)
	affected, err := r.ExecAffected(ctx, query, append([]any{args[0], args[5], args[6]}, args[8:]...)...)
	if err != nil {
		return fmt.Errorf("update coaching session: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("update coaching session %s: %w", session.ID, ErrSessionNotFound)
	}

	return nil
}

// ListIDsByUser получает ID сессий пользователя (как студента и как ментора)
func (r *SessionRepository) ListIDsByUser(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT id
		FROM coaching_sessions
		WHERE student_id = $1 OR mentor_id = $1
		ORDER BY created_at DESC
	`

	return r.queryIDs(ctx, "list sessions by user", query, userID)
}

// ListExpiredIDs получает незавершённые сессии, у которых прошёл дедлайн
func (r *SessionRepository) ListExpiredIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	query := `
		SELECT id
		FROM coaching_sessions
		WHERE status IN ('pending', 'answered', 'followup_pending') AND deadline_at < $1
		ORDER BY deadline_at ASC
		LIMIT $2
	`

	if limit <= 0 {
		limit = 1000
	}

	return r.queryIDs(ctx, "list expired sessions", query, now, limit)
}

func (r *SessionRepository) queryIDs(ctx context.Context, op, query string, args ...any) ([]string, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session ids: %w", err)
	}

	return ids, nil
}

func sessionArgs(s *model.CoachingSession) []any {
	var (
		feedbackImage, feedbackComment *string
		question, answer               *string
		questionAt, answerAt           *time.Time
	)
	if s.Feedback != nil {
		feedbackImage = &s.Feedback.FeedbackImageURL
		feedbackComment = &s.Feedback.Comment
	}
	if s.FollowUp != nil {
		question = &s.FollowUp.Question
		questionAt = &s.FollowUp.QuestionAt
		if s.FollowUp.AnswerAt != nil {
			answer = &s.FollowUp.Answer
			answerAt = s.FollowUp.AnswerAt
		}
	}

	return []any{
		s.ID,
		s.StudentID,
		s.MentorID,
		s.OriginalImageURL,
		s.InitialQuestion,
		s.Status,
		s.CloseReason,
		s.CreatedAt,
		s.DeadlineAt,
		s.AnsweredAt,
		s.ClosedAt,
		feedbackImage,
		feedbackComment,
		question,
		questionAt,
		answer,
		answerAt,
	}
}

func scanSession(row pgx.Row) (*model.CoachingSession, error) {
	var (
		session                        model.CoachingSession
		feedbackImage, feedbackComment *string
		question, answer               *string
		questionAt, answerAt           *time.Time
	)

	err := row.Scan(
		&session.ID,
		&session.StudentID,
		&session.MentorID,
		&session.OriginalImageURL,
		&session.InitialQuestion,
		&session.Status,
		&session.CloseReason,
		&session.CreatedAt,
		&session.DeadlineAt,
		&session.AnsweredAt,
		&session.ClosedAt,
		&feedbackImage,
		&feedbackComment,
		&question,
		&questionAt,
		&answer,
		&answerAt,
	)
	if err != nil {
		return nil, err
	}

	if feedbackImage != nil || feedbackComment != nil {
		session.Feedback = &model.Feedback{}
		if feedbackImage != nil {
			session.Feedback.FeedbackImageURL = *feedbackImage
		}
		if feedbackComment != nil {
			session.Feedback.Comment = *feedbackComment
		}
	}

	if question != nil && questionAt != nil {
		session.FollowUp = &model.FollowUp{
			Question:   *question,
			QuestionAt: *questionAt,
			AnswerAt:   answerAt,
		}
		if answer != nil {
			session.FollowUp.Answer = *answer
		}
	}

	return &session, nil
}
