package bunstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"quiz-grading-service/internal/domain"
)

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID        string    `bun:"id,pk"`
	Title     string    `bun:"title"`
	Data      string    `bun:"data"`
	CreatedAt time.Time `bun:"created_at"`
}

func newQuizRow(q domain.Quiz) (quizRow, error) {
	def := q.Definition
	def.ID = ""
	raw, err := json.Marshal(def)
	if err != nil {
		return quizRow{}, fmt.Errorf("marshal quiz: %w", err)
	}
	return quizRow{ID: q.ID, Title: q.Title, Data: string(raw), CreatedAt: q.CreatedAt.UTC()}, nil
}

func (r quizRow) definition() (domain.QuizDefinition, error) {
	var def domain.QuizDefinition
	if err := json.Unmarshal([]byte(r.Data), &def); err != nil {
		return domain.QuizDefinition{}, fmt.Errorf("unmarshal quiz %s: %w", r.ID, err)
	}
	def.ID = r.ID
	return def, nil
}

type attemptRow struct {
	bun.BaseModel `bun:"table:attempts"`

	ID            string    `bun:"id,pk"`
	UserID        string    `bun:"user_id"`
	QuizID        string    `bun:"quiz_id"`
	AttemptNumber int       `bun:"attempt_number"`
	Score         float64   `bun:"score"`
	Report        string    `bun:"report"`
	Notified      bool      `bun:"notified"`
	SubmittedAt   time.Time `bun:"submitted_at"`
}

func newAttemptRow(rec domain.AttemptRecord) attemptRow {
	report := string(rec.Report)
	if report == "" {
		report = "{}"
	}
	return attemptRow{
		ID:            rec.ID,
		UserID:        rec.UserID,
		QuizID:        rec.QuizID,
		AttemptNumber: rec.AttemptNumber,
		Score:         rec.Score,
		Report:        report,
		Notified:      rec.Notified,
		SubmittedAt:   rec.SubmittedAt.UTC(),
	}
}

func (r attemptRow) record() domain.AttemptRecord {
	return domain.AttemptRecord{
		ID:            r.ID,
		UserID:        r.UserID,
		QuizID:        r.QuizID,
		AttemptNumber: r.AttemptNumber,
		Score:         r.Score,
		SubmittedAt:   r.SubmittedAt,
		Report:        json.RawMessage(r.Report),
		Notified:      r.Notified,
	}
}

type studentRow struct {
	bun.BaseModel `bun:"table:students"`

	ID           string    `bun:"id,pk"`
	StudentID    string    `bun:"student_id"`
	Email        string    `bun:"email"`
	PasswordHash string    `bun:"password_hash"`
	CreatedAt    time.Time `bun:"created_at"`
}

func newStudentRow(u domain.User) studentRow {
	return studentRow{
		ID:           u.ID,
		StudentID:    u.StudentID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt.UTC(),
	}
}

func (r studentRow) user() domain.User {
	return domain.User{
		ID:           r.ID,
		StudentID:    r.StudentID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}
