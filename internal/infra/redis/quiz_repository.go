package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-grading-service/internal/domain"
)

// QuizLoader fetches quiz content from a backing store (e.g., the database).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error)
}

// QuizRepository caches quiz definitions in Redis and falls back to a loader
// on cache miss. Definitions are stored as JSON under quiz:{quizID}:definition.
// Cache errors are never fatal; the loader is the source of truth.
type QuizRepository struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuizRepository(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error) {
	if def, ok := r.cached(ctx, quizID); ok {
		return def, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if def, ok := r.cached(ctx, quizID); ok {
			return def, nil
		}

		def, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.QuizDefinition{}, err
		}
		if raw, err := json.Marshal(def); err == nil {
			_ = r.client.Set(ctx, r.key(quizID), raw, r.ttlWithJitter()).Err()
		}
		return def, nil
	})
	if err != nil {
		return domain.QuizDefinition{}, err
	}
	return result.(domain.QuizDefinition), nil
}

// Invalidate removes the cached definition.
func (r *QuizRepository) Invalidate(ctx context.Context, quizID string) {
	_ = r.client.Del(ctx, r.key(quizID)).Err()
	r.sf.Forget(quizID)
}

func (r *QuizRepository) cached(ctx context.Context, quizID string) (domain.QuizDefinition, bool) {
	raw, err := r.client.Get(ctx, r.key(quizID)).Bytes()
	if err != nil {
		return domain.QuizDefinition{}, false
	}
	var def domain.QuizDefinition
	if err := json.Unmarshal(raw, &def); err != nil {
		return domain.QuizDefinition{}, false
	}
	return def, true
}

func (r *QuizRepository) key(quizID string) string {
	return "quiz:" + quizID + ":definition"
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// isMiss reports whether err is a plain cache miss.
func isMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}
