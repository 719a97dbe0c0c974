package app

import (
	"fmt"
	"sync/atomic"
	"time"

	"quiz-grading-service/internal/domain"
)

// Settings are the process-wide knobs an admin may change at runtime.
type Settings struct {
	MaxAttempts     int           `json:"maxAttempts"`
	DuplicateWindow time.Duration `json:"-"`
	MailEnabled     bool          `json:"mailEnabled"`
	MailConfigured  bool          `json:"mailConfigured"`
	PassMark        float64       `json:"passMark"`
}

// Policy is the attempt policy implied by the settings.
func (s Settings) Policy() domain.AttemptPolicy {
	return domain.AttemptPolicy{MaxAttempts: s.MaxAttempts, DuplicateWindow: s.DuplicateWindow}
}

// SettingsStore holds the current settings. It is loaded once at startup and
// replaced wholesale on update.
type SettingsStore struct {
	current atomic.Pointer[Settings]
}

func NewSettingsStore(initial Settings) *SettingsStore {
	s := &SettingsStore{}
	s.current.Store(&initial)
	return s
}

// Get returns a copy of the current settings.
func (s *SettingsStore) Get() Settings {
	return *s.current.Load()
}

// Update replaces the admin-editable fields. It returns a warning when mail is
// switched on without delivery credentials.
func (s *SettingsStore) Update(maxAttempts int, mailEnabled bool) (Settings, string, error) {
	if maxAttempts < 1 || maxAttempts > 999 {
		return Settings{}, "", fmt.Errorf("%w: maximum attempts must be between 1 and 999", domain.ErrInvalidSettings)
	}
	next := s.Get()
	next.MaxAttempts = maxAttempts
	next.MailEnabled = mailEnabled
	s.current.Store(&next)

	var warning string
	if mailEnabled && !next.MailConfigured {
		warning = "mail enabled but delivery credentials are not configured"
	}
	return next, warning, nil
}
