package services

import (
	"errors"
)

var (
	// ErrNotFound is returned when a quiz, attempt, or user does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrAccessDenied is returned when the access policy rejects the caller.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidInput is returned for malformed or out-of-range request fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidQuiz is returned when a quiz has no questions and cannot be scored.
	ErrInvalidQuiz = errors.New("quiz has no questions")

	// ErrInactiveQuiz is returned when submitting against a deactivated quiz.
	ErrInactiveQuiz = errors.New("quiz is not active")
)
