package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kingrea/flowsem/internal/config"
)

func TestPrintfAppendsTimestampedLines(t *testing.T) {
	projectDir := t.TempDir()
	logger, err := New(projectDir)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Printf("flow %s chain %d skipped\n", "main", 2)
	logger.Printf("second")
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	want := filepath.Join(projectDir, config.ProjectDirName, "logs", "flowsem.log")
	if logger.Path() != want {
		t.Fatalf("expected log at %s, got %s", want, logger.Path())
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", lines)
	}
	if !strings.HasPrefix(lines[0], "[") || !strings.HasSuffix(lines[0], "] flow main chain 2 skipped") {
		t.Fatalf("unexpected line %q", lines[0])
	}
}

func TestNilLoggerIsNoop(t *testing.T) {
	var logger *Logger
	logger.Printf("ignored")
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
