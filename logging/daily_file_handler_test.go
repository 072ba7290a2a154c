package logging_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lichun/polisearch/logging"
)

func TestDailyFileHandlerClonesShareFile(t *testing.T) {
	dir := t.TempDir()
	handler, err := logging.NewDailyFileHandler(dir, &slog.HandlerOptions{Level: slog.LevelDebug})
	if err != nil {
		t.Fatalf("NewDailyFileHandler: %v", err)
	}

	logger := slog.New(handler)
	logger.Info("base message")
	logger.With(slog.String("stage", "ocr")).Info("clone message")
	logger.WithGroup("run").Info("group message")

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d log files, want clones to share one: %v", len(entries), entries)
	}
	name := entries[0].Name()
	if !strings.HasPrefix(name, "polisearch-") || !strings.HasSuffix(name, ".log") {
		t.Errorf("got log file name %q", name)
	}

	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"base message", "clone message", "group message"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("log file missing %q", want)
		}
	}
}
