package notify

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"quiz-grading-service/internal/app"
	"quiz-grading-service/internal/domain"
)

func sampleNotice() app.SubmissionNotice {
	return app.SubmissionNotice{
		StudentName:   "s-100",
		QuizTitle:     "Capitals",
		Score:         66.666,
		AttemptNumber: 2,
		Passed:        false,
		Correct:       2,
		Total:         3,
		Sections: []domain.SectionSummary{
			{Kind: domain.KindFillInTheBlank, Correct: 1, Total: 1},
			{Kind: domain.KindTrueFalse, Correct: 0, Total: 0},
			{Kind: domain.KindMultipleChoice, Correct: 1, Total: 2},
		},
		SubmittedAt: time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC),
		ResultURL:   "http://localhost:8080/results/r1",
	}
}

func TestSubmissionMessage(t *testing.T) {
	msg, err := SubmissionMessage("admin@example.com", sampleNotice())
	require.NoError(t, err)

	assert.Equal(t, "Student Submission: s-100 - Capitals", msg.Subject)
	assert.Equal(t, []string{"admin@example.com"}, msg.To)
	assert.Contains(t, msg.Text, "66.67% (2/3 correct) - NOT PASSED")
	assert.Contains(t, msg.Text, "Multiple choice: 1/2")
	assert.NotContains(t, msg.Text, "True / False", "empty sections are skipped")
	assert.Contains(t, msg.Text, "May 01, 2024 at 02:30 PM")
	assert.Contains(t, msg.HTML, `href="http://localhost:8080/results/r1"`)
}

func TestAnnouncementMessageEscapesHTML(t *testing.T) {
	msg, err := AnnouncementMessage("s@example.com", app.QuizAnnouncement{
		QuizTitle:   "<script>Cells</script>",
		MaxAttempts: 1,
		QuizURL:     "http://localhost:8080/quizzes/q1",
	})
	require.NoError(t, err)
	assert.Equal(t, "New Quiz Available: <script>Cells</script>", msg.Subject)
	assert.Contains(t, msg.Text, "You have 1 attempt to complete it.")
	assert.NotContains(t, msg.HTML, "<script>")
}

func TestSendGridAnnounceCountsDeliveries(t *testing.T) {
	sg := NewSendGrid("key", "Quiz", "quiz@example.com", zap.NewNop())
	var bodies []string
	sg.api = func(req rest.Request) (*rest.Response, error) {
		bodies = append(bodies, string(req.Body))
		if strings.Contains(string(req.Body), "bad@example.com") {
			return &rest.Response{StatusCode: http.StatusBadRequest, Body: "invalid"}, nil
		}
		return &rest.Response{StatusCode: http.StatusAccepted}, nil
	}

	sent, err := sg.AnnounceQuiz(context.Background(), []string{"a@example.com", "bad@example.com", "c@example.com"}, app.QuizAnnouncement{
		QuizTitle:   "Capitals",
		MaxAttempts: 3,
	})
	assert.Equal(t, 2, sent)
	assert.True(t, errors.Is(err, ErrDeliveryFailed))
	require.Len(t, bodies, 3)
	assert.Contains(t, bodies[0], "New Quiz Available: Capitals")
	assert.NotContains(t, bodies[0], "c@example.com")
}

func TestSendGridNotifySubmission(t *testing.T) {
	sg := NewSendGrid("key", "Quiz", "quiz@example.com", nil)
	sg.api = func(rest.Request) (*rest.Response, error) {
		return nil, errors.New("connection refused")
	}
	err := sg.NotifySubmission(context.Background(), "admin@example.com", sampleNotice())
	assert.ErrorIs(t, err, ErrDeliveryFailed)
}
