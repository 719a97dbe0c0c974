package app

import (
	"context"
	"time"

	"quiz-grading-service/internal/domain"
)

// SubmissionNotice is sent to the administrator after a recorded attempt.
type SubmissionNotice struct {
	StudentName   string
	QuizTitle     string
	Score         float64
	AttemptNumber int
	Passed        bool
	Correct       int
	Total         int
	Sections      []domain.SectionSummary
	SubmittedAt   time.Time
	ResultURL     string
}

// QuizAnnouncement tells students a new quiz is available.
type QuizAnnouncement struct {
	QuizID      string
	QuizTitle   string
	MaxAttempts int
	QuizURL     string
}

// Notifier delivers notifications. Implementations render and send; the
// services decide when.
type Notifier interface {
	NotifySubmission(ctx context.Context, to string, n SubmissionNotice) error
	AnnounceQuiz(ctx context.Context, to []string, a QuizAnnouncement) (sent int, err error)
}

type nopNotifier struct{}

func (nopNotifier) NotifySubmission(context.Context, string, SubmissionNotice) error { return nil }
func (nopNotifier) AnnounceQuiz(context.Context, []string, QuizAnnouncement) (int, error) {
	return 0, nil
}
