package memory

import (
	"context"
	"sync"

	"quiz-grading-service/internal/app"
)

// BoardStore is an in-memory implementation of app.BoardRepository for a
// single instance.
type BoardStore struct {
	mu     sync.RWMutex
	boards map[string]*app.Board
}

func NewBoardStore() *BoardStore {
	return &BoardStore{
		boards: make(map[string]*app.Board),
	}
}

func (s *BoardStore) GetOrCreate(quizID string) (*app.Board, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if board, ok := s.boards[quizID]; ok {
		return board, false
	}
	board := app.NewBoard(quizID)
	s.boards[quizID] = board
	return board, true
}

func (s *BoardStore) Get(quizID string) (*app.Board, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	board, ok := s.boards[quizID]
	return board, ok
}

func (s *BoardStore) Delete(quizID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.boards, quizID)
}

// Publish applies the update to the quiz's board if one is live. A board
// created later seeds itself from stored results.
func (s *BoardStore) Publish(_ context.Context, u app.BoardUpdate) error {
	if board, ok := s.Get(u.QuizID); ok {
		board.Apply(u)
	}
	return nil
}
