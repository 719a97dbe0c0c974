package bunstore

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"quiz-grading-service/internal/domain"
)

// QuizStore is the quiz catalog. It also loads definitions for the cache.
type QuizStore struct {
	db *bun.DB
}

func NewQuizStore(db *bun.DB) *QuizStore {
	return &QuizStore{db: db}
}

func (s *QuizStore) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	row, err := newQuizRow(quiz)
	if err != nil {
		return err
	}
	_, err = s.db.NewInsert().Model(&row).Exec(ctx)
	return err
}

func (s *QuizStore) LoadQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error) {
	var row quizRow
	if err := s.db.NewSelect().Model(&row).Where("id = ?", quizID).Scan(ctx); err != nil {
		return domain.QuizDefinition{}, notFound(err, domain.ErrQuizNotFound)
	}
	return row.definition()
}

// ListQuizzes returns quizzes oldest first, definitions included.
func (s *QuizStore) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	var rows []quizRow
	if err := s.db.NewSelect().Model(&rows).Order("created_at ASC", "id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	out := make([]domain.Quiz, 0, len(rows))
	for _, row := range rows {
		def, err := row.definition()
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Quiz{ID: row.ID, Title: row.Title, CreatedAt: row.CreatedAt, Definition: def})
	}
	return out, nil
}

func (s *QuizStore) DeleteQuiz(ctx context.Context, quizID string) error {
	res, err := s.db.NewDelete().Model((*quizRow)(nil)).Where("id = ?", quizID).Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *QuizStore) DeleteAllQuizzes(ctx context.Context) error {
	_, err := s.db.NewDelete().Model((*quizRow)(nil)).Where("1 = 1").Exec(ctx)
	return err
}
