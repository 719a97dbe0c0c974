// Package attempt does attempt accounting for one (user, quiz) pair.
//
// Every function works on a history snapshot supplied by the caller, ordered
// by submission time, oldest first. Nothing here locks: callers must serialize
// attempt creation per pair so that no more than MaxAttempts records exist.
package attempt

import (
	"time"

	"quiz-grading-service/internal/domain"
)

// State is where a (user, quiz) pair stands.
type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateSubmitted  State = "submitted"
	StateExhausted  State = "exhausted"
)

// Count is the number of recorded attempts.
func Count(history []domain.AttemptRecord) int {
	return len(history)
}

// NextNumber is the 1-based number the next attempt will get.
func NextNumber(history []domain.AttemptRecord) int {
	return Count(history) + 1
}

// CanAttempt reports whether another attempt is allowed under policy.
func CanAttempt(history []domain.AttemptRecord, policy domain.AttemptPolicy) bool {
	return Count(history) < policy.MaxAttempts
}

// MostRecent returns the latest attempt, if any.
func MostRecent(history []domain.AttemptRecord) (domain.AttemptRecord, bool) {
	if len(history) == 0 {
		return domain.AttemptRecord{}, false
	}
	return history[len(history)-1], true
}

// IsDuplicateSubmission reports whether the latest attempt landed within the
// policy's duplicate window before now.
func IsDuplicateSubmission(history []domain.AttemptRecord, now time.Time, policy domain.AttemptPolicy) bool {
	latest, ok := MostRecent(history)
	if !ok {
		return false
	}
	return now.Sub(latest.SubmittedAt) < policy.DuplicateWindow
}

// IsStaleToken reports whether a client-claimed attempt number has already
// been recorded, e.g. a form resubmitted after navigating back.
func IsStaleToken(claimed int, history []domain.AttemptRecord) bool {
	return claimed <= Count(history)
}

// NumberOf returns the 1-based attempt number of the record with id.
func NumberOf(history []domain.AttemptRecord, id string) (int, bool) {
	for i, rec := range history {
		if rec.ID == id {
			return i + 1, true
		}
	}
	return 0, false
}

// StateOf derives the pair's state. tokenIssued is true while the caller has
// handed out an attempt token that has not been submitted yet.
func StateOf(history []domain.AttemptRecord, policy domain.AttemptPolicy, tokenIssued bool) State {
	switch {
	case !CanAttempt(history, policy):
		return StateExhausted
	case tokenIssued:
		return StateInProgress
	case Count(history) == 0:
		return StateNotStarted
	default:
		return StateSubmitted
	}
}
