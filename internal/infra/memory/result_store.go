package memory

import (
	"context"
	"sort"
	"sync"

	"quiz-grading-service/internal/domain"
)

type attemptKey struct {
	userID string
	quizID string
	number int
}

// ResultStore is an in-memory app.ResultRepository.
type ResultStore struct {
	mu      sync.RWMutex
	records map[string]domain.AttemptRecord
	taken   map[attemptKey]string
}

func NewResultStore() *ResultStore {
	return &ResultStore{
		records: make(map[string]domain.AttemptRecord),
		taken:   make(map[attemptKey]string),
	}
}

func (s *ResultStore) Append(_ context.Context, rec domain.AttemptRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := attemptKey{rec.UserID, rec.QuizID, rec.AttemptNumber}
	if _, ok := s.taken[k]; ok {
		return domain.ErrAttemptConflict
	}
	s.taken[k] = rec.ID
	s.records[rec.ID] = rec
	return nil
}

func (s *ResultStore) Get(_ context.Context, id string) (domain.AttemptRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return domain.AttemptRecord{}, domain.ErrResultNotFound
	}
	return rec, nil
}

func (s *ResultStore) MarkNotified(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return domain.ErrResultNotFound
	}
	rec.Notified = true
	s.records[id] = rec
	return nil
}

func (s *ResultStore) History(_ context.Context, userID, quizID string) ([]domain.AttemptRecord, error) {
	return s.filter(func(r domain.AttemptRecord) bool {
		return r.UserID == userID && r.QuizID == quizID
	}), nil
}

func (s *ResultStore) ListByUser(_ context.Context, userID string) ([]domain.AttemptRecord, error) {
	return s.filter(func(r domain.AttemptRecord) bool { return r.UserID == userID }), nil
}

func (s *ResultStore) ListByQuiz(_ context.Context, quizID string) ([]domain.AttemptRecord, error) {
	return s.filter(func(r domain.AttemptRecord) bool { return r.QuizID == quizID }), nil
}

func (s *ResultStore) DeleteByQuiz(_ context.Context, quizID string) error {
	s.delete(func(r domain.AttemptRecord) bool { return r.QuizID == quizID })
	return nil
}

func (s *ResultStore) DeleteByUser(_ context.Context, userID string) error {
	s.delete(func(r domain.AttemptRecord) bool { return r.UserID == userID })
	return nil
}

func (s *ResultStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]domain.AttemptRecord)
	s.taken = make(map[attemptKey]string)
	return nil
}

// filter returns matching records oldest first.
func (s *ResultStore) filter(match func(domain.AttemptRecord) bool) []domain.AttemptRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AttemptRecord, 0)
	for _, rec := range s.records {
		if match(rec) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].AttemptNumber < out[j].AttemptNumber
	})
	return out
}

func (s *ResultStore) delete(match func(domain.AttemptRecord) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range s.records {
		if match(rec) {
			delete(s.records, id)
			delete(s.taken, attemptKey{rec.UserID, rec.QuizID, rec.AttemptNumber})
		}
	}
}
