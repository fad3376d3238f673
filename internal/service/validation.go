package service

import (
	"strings"
	"unicode/utf8"
)

// Ограничения длины текстов, в символах
const (
	MinQuestionLength         = 10
	MaxQuestionLength         = 500
	MinFollowUpQuestionLength = 10
	MaxFollowUpQuestionLength = 300
	MinAnswerLength           = 10
	MinCommentLength          = 10
	MaxCommentLength          = 500
)

func validateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalidInput(field, "is required")
	}
	return nil
}

func validateLength(field, value string, min, max int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	if n < min {
		return invalidInput(field, "is too short")
	}
	if max > 0 && n > max {
		return invalidInput(field, "is too long")
	}
	return nil
}

func (in CreateSessionInput) validate() error {
	if err := validateRequired("student_id", in.StudentID); err != nil {
		return err
	}
	if err := validateRequired("mentor_id", in.MentorID); err != nil {
		return err
	}
	if in.StudentID == in.MentorID {
		return invalidInput("mentor_id", "must differ from student_id")
	}
	if err := validateRequired("original_image_url", in.OriginalImageURL); err != nil {
		return err
	}
	if err := validateLength("initial_question", in.InitialQuestion, MinQuestionLength, MaxQuestionLength); err != nil {
		return err
	}
	if in.Cost <= 0 {
		return invalidInput("cost", "must be positive")
	}
	return nil
}
