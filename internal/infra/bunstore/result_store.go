package bunstore

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"quiz-grading-service/internal/domain"
)

// ResultStore persists attempt records. The unique index on
// (user_id, quiz_id, attempt_number) turns a lost race into
// domain.ErrAttemptConflict.
type ResultStore struct {
	db *bun.DB
}

func NewResultStore(db *bun.DB) *ResultStore {
	return &ResultStore{db: db}
}

func (s *ResultStore) Append(ctx context.Context, rec domain.AttemptRecord) error {
	row := newAttemptRow(rec)
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAttemptConflict
		}
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (s *ResultStore) Get(ctx context.Context, id string) (domain.AttemptRecord, error) {
	var row attemptRow
	if err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx); err != nil {
		return domain.AttemptRecord{}, notFound(err, domain.ErrResultNotFound)
	}
	return row.record(), nil
}

func (s *ResultStore) MarkNotified(ctx context.Context, id string) error {
	_, err := s.db.NewUpdate().Model((*attemptRow)(nil)).
		Set("notified = ?", true).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (s *ResultStore) History(ctx context.Context, userID, quizID string) ([]domain.AttemptRecord, error) {
	return s.list(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("user_id = ?", userID).Where("quiz_id = ?", quizID)
	})
}

func (s *ResultStore) ListByUser(ctx context.Context, userID string) ([]domain.AttemptRecord, error) {
	return s.list(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("user_id = ?", userID)
	})
}

func (s *ResultStore) ListByQuiz(ctx context.Context, quizID string) ([]domain.AttemptRecord, error) {
	return s.list(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("quiz_id = ?", quizID)
	})
}

func (s *ResultStore) DeleteByQuiz(ctx context.Context, quizID string) error {
	_, err := s.db.NewDelete().Model((*attemptRow)(nil)).Where("quiz_id = ?", quizID).Exec(ctx)
	return err
}

func (s *ResultStore) DeleteByUser(ctx context.Context, userID string) error {
	_, err := s.db.NewDelete().Model((*attemptRow)(nil)).Where("user_id = ?", userID).Exec(ctx)
	return err
}

func (s *ResultStore) DeleteAll(ctx context.Context) error {
	_, err := s.db.NewDelete().Model((*attemptRow)(nil)).Where("1 = 1").Exec(ctx)
	return err
}

func (s *ResultStore) list(ctx context.Context, filter func(*bun.SelectQuery) *bun.SelectQuery) ([]domain.AttemptRecord, error) {
	var rows []attemptRow
	q := s.db.NewSelect().Model(&rows).Order("submitted_at ASC", "attempt_number ASC")
	if err := filter(q).Scan(ctx); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	out := make([]domain.AttemptRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.record())
	}
	return out, nil
}
