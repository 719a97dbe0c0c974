package memory

import (
	"context"
	"fmt"
	"sync"

	"quiz-grading-service/internal/domain"
)

// PairLocker serializes submissions per (user, quiz) within one process.
type PairLocker struct {
	mu    sync.Mutex
	locks map[string]*pairLock
}

type pairLock struct {
	ch   chan struct{}
	refs int
}

func NewPairLocker() *PairLocker {
	return &PairLocker{locks: make(map[string]*pairLock)}
}

// Lock blocks until the pair is free or ctx is done, in which case the error
// wraps domain.ErrLockNotAcquired.
func (l *PairLocker) Lock(ctx context.Context, userID, quizID string) (func(), error) {
	key := userID + "\x00" + quizID

	l.mu.Lock()
	pl, ok := l.locks[key]
	if !ok {
		pl = &pairLock{ch: make(chan struct{}, 1)}
		l.locks[key] = pl
	}
	pl.refs++
	l.mu.Unlock()

	select {
	case pl.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, pl)
		return nil, fmt.Errorf("%w: %v", domain.ErrLockNotAcquired, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-pl.ch
			l.release(key, pl)
		})
	}, nil
}

func (l *PairLocker) release(key string, pl *pairLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pl.refs--
	if pl.refs == 0 {
		delete(l.locks, key)
	}
}
