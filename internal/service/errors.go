package service

import (
	"errors"
	"fmt"

	"github.com/Freeeeeet/coaching_bot/internal/model"
)

var (
	ErrInsufficientCredits  = errors.New("insufficient credits")
	ErrSessionNotFound      = errors.New("session not found")
	ErrPreconditionFailed   = errors.New("precondition failed")
	ErrInvalidFollowUpState = errors.New("invalid follow-up state")
	ErrInvalidInput         = errors.New("invalid input")
	ErrUserNotFound         = errors.New("user not found")
)

// PreconditionError статус сессии не подходит для команды
type PreconditionError struct {
	Operation string
	Expected  model.SessionStatus
	Actual    model.SessionStatus
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: session status is %q, expected %q", e.Operation, e.Actual, e.Expected)
}

func (e *PreconditionError) Is(target error) bool {
	return target == ErrPreconditionFailed
}

// InsufficientCreditsError на балансе студента меньше стоимости сессии
type InsufficientCreditsError struct {
	Balance int64
	Cost    int64
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: balance %d, cost %d", e.Balance, e.Cost)
}

func (e *InsufficientCreditsError) Is(target error) bool {
	return target == ErrInsufficientCredits
}

// FieldError некорректное значение поля во входных данных
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidInput, e.Field, e.Reason)
}

func (e *FieldError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalidInput(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}
