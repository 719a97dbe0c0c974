package app

import (
	"sort"
	"sync"
	"time"

	"quiz-grading-service/internal/domain"
)

// Board is an in-memory live scoreboard for one quiz: each student's best
// score, pushed to subscribers on every recorded attempt. Each attempt record
// counts once, however many times it is applied.
type Board struct {
	quizID      string
	now         func() time.Time
	mu          sync.RWMutex
	students    map[string]*boardStudent
	applied     map[string]struct{}
	subscribers map[chan domain.Scoreboard]struct{}
}

// BoardUpdate is one recorded attempt as seen by scoreboards. It is also the
// message fanned out between instances.
type BoardUpdate struct {
	QuizID      string    `json:"quizId"`
	RecordID    string    `json:"recordId"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Score       float64   `json:"score"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type boardStudent struct {
	userID    string
	name      string
	best      float64
	attempts  int
	reachedAt time.Time
}

// NewBoard is exported for infrastructure layers that keep boards.
func NewBoard(quizID string) *Board {
	return NewBoardWithClock(quizID, time.Now)
}

// NewBoardWithClock allows deterministic timestamps in tests.
func NewBoardWithClock(quizID string, now func() time.Time) *Board {
	return &Board{
		quizID:      quizID,
		now:         now,
		students:    make(map[string]*boardStudent),
		applied:     make(map[string]struct{}),
		subscribers: make(map[chan domain.Scoreboard]struct{}),
	}
}

// Apply records one attempt and broadcasts the new standings. It reports
// false, without broadcasting, when the record was already applied.
func (b *Board) Apply(u BoardUpdate) (domain.Scoreboard, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.applyLocked(u) {
		return b.snapshotLocked(), false
	}
	return b.broadcastLocked(), true
}

// seed replays stored attempts in one step and broadcasts once if anything
// was new, so a subscriber that joined before seeding catches up.
func (b *Board) seed(updates []BoardUpdate) {
	b.mu.Lock()
	defer b.mu.Unlock()
	changed := false
	for _, u := range updates {
		if b.applyLocked(u) {
			changed = true
		}
	}
	if changed && len(b.subscribers) > 0 {
		b.broadcastLocked()
	}
}

func (b *Board) applyLocked(u BoardUpdate) bool {
	if u.RecordID != "" {
		if _, seen := b.applied[u.RecordID]; seen {
			return false
		}
		b.applied[u.RecordID] = struct{}{}
	}
	st, ok := b.students[u.UserID]
	if !ok {
		st = &boardStudent{userID: u.UserID, name: u.Name, best: u.Score, reachedAt: u.SubmittedAt}
		b.students[u.UserID] = st
	}
	st.attempts++
	if u.Name != "" {
		st.name = u.Name
	}
	if u.Score > st.best {
		st.best = u.Score
		st.reachedAt = u.SubmittedAt
	}
	return true
}

// Snapshot returns the current standings.
func (b *Board) Snapshot() domain.Scoreboard {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshotLocked()
}

// Subscribe returns a channel that receives standings updates, starting with
// the current snapshot. The caller must invoke the returned cancel function.
func (b *Board) Subscribe() (<-chan domain.Scoreboard, func()) {
	ch := make(chan domain.Scoreboard, 8)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	initial := b.snapshotLocked()
	b.mu.Unlock()

	ch <- initial

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Close ends every subscription.
func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers {
		delete(b.subscribers, ch)
		close(ch)
	}
}

func (b *Board) broadcastLocked() domain.Scoreboard {
	sb := b.snapshotLocked()
	for ch := range b.subscribers {
		select {
		case ch <- sb:
		default:
			// Drop the oldest pending update so a slow reader never blocks scoring.
			select {
			case <-ch:
			default:
			}
			ch <- sb
		}
	}
	return sb
}

func (b *Board) snapshotLocked() domain.Scoreboard {
	entries := make([]domain.ScoreboardEntry, 0, len(b.students))
	for _, st := range b.students {
		entries = append(entries, domain.ScoreboardEntry{
			UserID:    st.userID,
			Name:      st.name,
			BestScore: st.best,
			Attempts:  st.attempts,
		})
	}

	// Best score first, then whoever reached it earlier, then name.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].BestScore != entries[j].BestScore {
			return entries[i].BestScore > entries[j].BestScore
		}
		si := b.students[entries[i].UserID]
		sj := b.students[entries[j].UserID]
		if !si.reachedAt.Equal(sj.reachedAt) {
			return si.reachedAt.Before(sj.reachedAt)
		}
		return entries[i].Name < entries[j].Name
	})

	return domain.Scoreboard{
		QuizID:    b.quizID,
		Entries:   entries,
		UpdatedAt: b.now(),
	}
}
