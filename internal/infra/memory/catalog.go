package memory

import (
	"context"
	"sort"
	"sync"

	"quiz-grading-service/internal/domain"
)

// Catalog keeps uploaded quizzes in memory. It also serves as the
// QuizLoader behind a QuizRepository.
type Catalog struct {
	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
}

func NewCatalog(quizzes ...domain.Quiz) *Catalog {
	c := &Catalog{quizzes: make(map[string]domain.Quiz)}
	for _, q := range quizzes {
		c.quizzes[q.ID] = q
	}
	return c
}

func (c *Catalog) SaveQuiz(_ context.Context, quiz domain.Quiz) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quizzes[quiz.ID] = quiz
	return nil
}

func (c *Catalog) LoadQuiz(_ context.Context, quizID string) (domain.QuizDefinition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	quiz, ok := c.quizzes[quizID]
	if !ok {
		return domain.QuizDefinition{}, domain.ErrQuizNotFound
	}
	def := quiz.Definition
	def.ID = quiz.ID
	return def, nil
}

// ListQuizzes returns quizzes oldest first.
func (c *Catalog) ListQuizzes(_ context.Context) ([]domain.Quiz, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Quiz, 0, len(c.quizzes))
	for _, q := range c.quizzes {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (c *Catalog) DeleteQuiz(_ context.Context, quizID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.quizzes[quizID]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(c.quizzes, quizID)
	return nil
}

func (c *Catalog) DeleteAllQuizzes(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quizzes = make(map[string]domain.Quiz)
	return nil
}
