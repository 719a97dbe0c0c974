package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrResultNotFound is returned when an attempt record does not exist or is not visible.
	ErrResultNotFound = errors.New("result not found")
	// ErrUserNotFound is returned for unknown student accounts.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when a student id is already taken.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned on failed logins.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAttemptConflict is returned when an attempt number is already recorded for a user and quiz.
	ErrAttemptConflict = errors.New("attempt already recorded")
	// ErrLockNotAcquired is returned when a submission for the same user and quiz is in flight.
	ErrLockNotAcquired = errors.New("submission already in progress")
	// ErrForbidden is returned when the caller's role does not allow the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidSettings is returned for out-of-range settings updates.
	ErrInvalidSettings = errors.New("invalid settings")
)

// ValidationError reports a malformed quiz definition.
// Index is -1 for quiz-level fields such as the title.
type ValidationError struct {
	Kind  string
	Index int
	Field string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid quiz format: missing %q", e.Field)
	}
	return fmt.Sprintf("invalid quiz format: %s question %d is missing %q", e.Kind, e.Index, e.Field)
}
