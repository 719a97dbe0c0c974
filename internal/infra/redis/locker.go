package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"quiz-grading-service/internal/domain"
)

// Deletes the lock only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// PairLocker serializes submissions per (user, quiz) across instances with
// SET NX PX. The lease bounds how long a crashed holder can block the pair.
type PairLocker struct {
	client *redis.Client
	lease  time.Duration
	retry  time.Duration
}

func NewPairLocker(client *redis.Client, lease time.Duration) *PairLocker {
	if lease <= 0 {
		lease = 10 * time.Second
	}
	return &PairLocker{client: client, lease: lease, retry: 25 * time.Millisecond}
}

// Lock polls until the lock is acquired or ctx is done.
func (l *PairLocker) Lock(ctx context.Context, userID, quizID string) (func(), error) {
	key := l.key(userID, quizID)
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.lease).Result()
		if err != nil && !isMiss(err) {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", domain.ErrLockNotAcquired, ctx.Err())
		case <-time.After(l.retry):
		}
	}

	return func() {
		// Released with a fresh context so a cancelled request still unlocks.
		rctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = releaseScript.Run(rctx, l.client, []string{key}, token).Err()
	}, nil
}

func (l *PairLocker) key(userID, quizID string) string {
	return "quiz:lock:" + quizID + ":" + userID
}
