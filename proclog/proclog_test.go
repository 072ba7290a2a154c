package proclog_test

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lichun/polisearch/proclog"
)

func TestEntryFormat(t *testing.T) {
	entry := proclog.Entry("policy.pdf", "PDF 轉換為 OCR JSON｜"+proclog.SuccessMarker, time.Now())

	if !strings.HasSuffix(entry, "\n") {
		t.Error("entry must end with a newline")
	}
	fields := strings.Split(strings.TrimSuffix(entry, "\n"), " | ")
	if len(fields) != 4 {
		t.Fatalf("got %d fields, want 4: %q", len(fields), entry)
	}
	if fields[1] != "policy.pdf" {
		t.Errorf("got filename field %q", fields[1])
	}
	if !strings.Contains(fields[2], proclog.SuccessMarker) {
		t.Errorf("description lost the status marker: %q", fields[2])
	}
	if !strings.HasPrefix(fields[3], "耗時: ") || !strings.HasSuffix(fields[3], " 秒") {
		t.Errorf("got elapsed field %q", fields[3])
	}
	if _, err := time.Parse("2006-01-02 15:04:05", fields[0]); err != nil {
		t.Errorf("got timestamp field %q: %v", fields[0], err)
	}
}

func TestErrorEntryZeroElapsed(t *testing.T) {
	entry := proclog.ErrorEntry("policy.pdf", "ERROR: embedding failed")
	if !strings.Contains(entry, "耗時: 0.0000 秒") {
		t.Errorf("got %q, want zero elapsed time", entry)
	}
}

func TestAppendAndProcessedFiles(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "ocr_logs", "indexer_ocr.log")

	entries := []string{
		proclog.Entry("a.pdf", "PDF 轉換為 OCR JSON｜"+proclog.SuccessMarker, time.Now()),
		proclog.Entry("b.pdf", "PDF 轉換為 OCR JSON｜"+proclog.FailureMarker, time.Now()),
		proclog.Entry("c.pdf", "PDF 轉換為 OCR JSON｜"+proclog.SuccessMarker, time.Now()),
	}
	for _, e := range entries {
		if err := proclog.Append(logPath, e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	processed, err := proclog.ProcessedFiles(logPath)
	if err != nil {
		t.Fatalf("ProcessedFiles: %v", err)
	}
	if len(processed) != 2 {
		t.Fatalf("got %d processed files, want 2: %v", len(processed), processed)
	}
	for _, want := range []string{"a.pdf", "c.pdf"} {
		if _, ok := processed[want]; !ok {
			t.Errorf("missing %s in processed set", want)
		}
	}
	if _, ok := processed["b.pdf"]; ok {
		t.Error("failed file b.pdf counted as processed")
	}
}

func TestProcessedFilesMissingLog(t *testing.T) {
	processed, err := proclog.ProcessedFiles(filepath.Join(t.TempDir(), "nope.log"))
	if err != nil {
		t.Fatalf("ProcessedFiles: %v", err)
	}
	if len(processed) != 0 {
		t.Errorf("got %d entries for a missing log, want 0", len(processed))
	}
}
