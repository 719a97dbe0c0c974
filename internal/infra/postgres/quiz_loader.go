package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-grading-service/internal/domain"
)

// QuizLoader loads quiz JSONB from Postgres. It reads the quizzes table that
// the bun migrations create and serves as the cache-miss path for the quiz
// repositories.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id=$1`, quizID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizDefinition{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.QuizDefinition{}, fmt.Errorf("load quiz: %w", err)
	}
	var def domain.QuizDefinition
	if err := json.Unmarshal(raw, &def); err != nil {
		return domain.QuizDefinition{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	def.ID = quizID
	return def, nil
}
