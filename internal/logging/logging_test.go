package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Guilhem-Bonnet/episode-owl/internal/config"
)

func TestNew_WritesJSONToRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "owl.log")
	devnull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("open devnull: %v", err)
	}
	defer devnull.Close()

	logger, closer, err := New(config.LoggingConfig{Level: "debug", Format: "json", File: path, MaxSizeMB: 1}, devnull, "owl-test")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug().Str("show", "Breaking Bad").Msg("hello")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(b)
	for _, want := range []string{`"app":"owl-test"`, `"show":"Breaking Bad"`, `"message":"hello"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %s in %q", want, line)
		}
	}
}

func TestNew_RejectsBadLevel(t *testing.T) {
	if _, _, err := New(config.LoggingConfig{Level: "loud"}, os.Stderr, "owl"); err == nil {
		t.Fatalf("expected error")
	}
}
