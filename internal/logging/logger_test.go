package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, err := New("debug", path)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Info("submission recorded")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected log output in %s", path)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("chatty", ""); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
