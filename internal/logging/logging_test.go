package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewWritesComponentFile(t *testing.T) {
	dir := t.TempDir()

	logger, cleanup, err := New("session", Options{Level: "debug", Format: "json", Dir: dir})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Debug("session created")
	cleanup()

	raw, err := os.ReadFile(filepath.Join(dir, "session.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(raw)
	if !strings.Contains(line, `"component":"session"`) || !strings.Contains(line, "session created") {
		t.Fatalf("unexpected log line %q", line)
	}
}

func TestNewDefaultsToInfoOnStderr(t *testing.T) {
	logger, cleanup, err := New("mcp-stdio", Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer cleanup()

	if logger.Logger.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected info level, got %s", logger.Logger.GetLevel())
	}
	if logger.Logger.Out != os.Stderr {
		t.Fatalf("expected stderr output")
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, _, err := New("x", Options{Level: "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
