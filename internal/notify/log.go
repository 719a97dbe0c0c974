package notify

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"quiz-grading-service/internal/app"
)

// Log writes notifications to the logger instead of sending them. It is
// used when no mail provider is configured.
type Log struct {
	logger *zap.Logger
}

var _ app.Notifier = (*Log)(nil)

func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) NotifySubmission(_ context.Context, to string, n app.SubmissionNotice) error {
	msg, err := SubmissionMessage(to, n)
	if err != nil {
		return err
	}
	l.logger.Info("mail (not sent)", zap.String("to", to), zap.String("subject", msg.Subject), zap.String("body", msg.Text))
	return nil
}

func (l *Log) AnnounceQuiz(_ context.Context, to []string, a app.QuizAnnouncement) (int, error) {
	for _, addr := range to {
		if _, err := AnnouncementMessage(addr, a); err != nil {
			return 0, err
		}
	}
	l.logger.Info("mail (not sent)", zap.String("to", strings.Join(to, ",")), zap.String("subject", "New Quiz Available: "+a.QuizTitle))
	return len(to), nil
}
