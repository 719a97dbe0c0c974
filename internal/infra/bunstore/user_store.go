package bunstore

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"quiz-grading-service/internal/domain"
)

// UserStore persists student accounts.
type UserStore struct {
	db *bun.DB
}

func NewUserStore(db *bun.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) CreateUser(ctx context.Context, u domain.User) error {
	row := newStudentRow(u)
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

func (s *UserStore) UpdateUser(ctx context.Context, u domain.User) error {
	row := newStudentRow(u)
	res, err := s.db.NewUpdate().Model(&row).
		Column("student_id", "email", "password_hash").
		WherePK().
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("update student: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *UserStore) GetUser(ctx context.Context, id string) (domain.User, error) {
	var row studentRow
	if err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx); err != nil {
		return domain.User{}, notFound(err, domain.ErrUserNotFound)
	}
	return row.user(), nil
}

func (s *UserStore) GetByStudentID(ctx context.Context, studentID string) (domain.User, error) {
	var row studentRow
	if err := s.db.NewSelect().Model(&row).Where("student_id = ?", studentID).Scan(ctx); err != nil {
		return domain.User{}, notFound(err, domain.ErrUserNotFound)
	}
	return row.user(), nil
}

func (s *UserStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	var rows []studentRow
	if err := s.db.NewSelect().Model(&rows).Order("student_id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	out := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.user())
	}
	return out, nil
}

func (s *UserStore) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.NewDelete().Model((*studentRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
