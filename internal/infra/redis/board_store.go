package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"quiz-grading-service/internal/app"
)

const boardChannelPrefix = "quiz:board:"

// boardEvent is the payload sent on quiz:board:{quizID}.
type boardEvent struct {
	Origin  string           `json:"origin"`
	Update  *app.BoardUpdate `json:"update,omitempty"`
	Removed bool             `json:"removed,omitempty"`
}

// BoardStore keeps live scoreboards in process and fans recorded attempts out
// to every instance over Redis pub/sub. Each instance applies remote updates
// to the boards it holds; boards skip records they have already counted.
type BoardStore struct {
	client *redis.Client
	pubsub *redis.PubSub
	logger *zap.Logger
	origin string

	mu     sync.RWMutex
	boards map[string]*app.Board
	done   chan struct{}
}

// NewBoardStore subscribes to board channels before returning, so no update
// published after construction is missed.
func NewBoardStore(ctx context.Context, client *redis.Client, logger *zap.Logger) (*BoardStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pubsub := client.PSubscribe(ctx, boardChannelPrefix+"*")
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe board updates: %w", err)
	}
	s := &BoardStore{
		client: client,
		pubsub: pubsub,
		logger: logger,
		origin: uuid.NewString(),
		boards: make(map[string]*app.Board),
		done:   make(chan struct{}),
	}
	go s.listen()
	return s, nil
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

// Delete drops the local board and tells other instances to close theirs.
func (s *BoardStore) Delete(quizID string) {
	s.mu.Lock()
	delete(s.boards, quizID)
	s.mu.Unlock()

	if err := s.send(context.Background(), quizID, boardEvent{Removed: true}); err != nil {
		s.logger.Warn("publish board removal", zap.String("quiz_id", quizID), zap.Error(err))
	}
}

// Publish applies the update locally, then sends it to the other instances.
func (s *BoardStore) Publish(ctx context.Context, u app.BoardUpdate) error {
	if board, ok := s.Get(u.QuizID); ok {
		board.Apply(u)
	}
	return s.send(ctx, u.QuizID, boardEvent{Update: &u})
}

// Close stops listening for remote updates.
func (s *BoardStore) Close() error {
	err := s.pubsub.Close()
	<-s.done
	return err
}

func (s *BoardStore) send(ctx context.Context, quizID string, ev boardEvent) error {
	ev.Origin = s.origin
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode board event: %w", err)
	}
	if err := s.client.Publish(ctx, boardChannelPrefix+quizID, payload).Err(); err != nil {
		return fmt.Errorf("publish board event: %w", err)
	}
	return nil
}

func (s *BoardStore) listen() {
	defer close(s.done)
	for msg := range s.pubsub.Channel() {
		var ev boardEvent
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			s.logger.Warn("decode board event", zap.String("channel", msg.Channel), zap.Error(err))
			continue
		}
		if ev.Origin == s.origin {
			continue
		}
		quizID := strings.TrimPrefix(msg.Channel, boardChannelPrefix)
		switch {
		case ev.Removed:
			s.mu.Lock()
			board, ok := s.boards[quizID]
			delete(s.boards, quizID)
			s.mu.Unlock()
			if ok {
				board.Close()
			}
		case ev.Update != nil:
			if board, ok := s.Get(quizID); ok {
				ev.Update.QuizID = quizID
				board.Apply(*ev.Update)
			}
		}
	}
}
