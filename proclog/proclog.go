// Package proclog maintains the per-stage audit logs the pipelines use to
// decide what has already been processed. The file format is a contract:
// one line per entry,
//
//	<timestamp> | <filename> | <description> | 耗時: <seconds> 秒
//
// and a file counts as processed only when a line for it carries the
// 狀態：成功 marker.
package proclog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// SuccessMarker is appended to a stage description on success; resume
	// scanning matches on it verbatim.
	SuccessMarker = "狀態：成功"
	// FailureMarker is appended to a stage description on failure.
	FailureMarker = "狀態：失敗"
)

// Entry formats a log line for work on filename that started at start.
func Entry(filename, description string, start time.Time) string {
	elapsed := time.Since(start).Seconds()
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	return fmt.Sprintf("%s | %s | %s | 耗時: %.4f 秒\n", timestamp, filename, description, elapsed)
}

// ErrorEntry formats a log line for a failed operation with no meaningful
// elapsed time.
func ErrorEntry(filename, description string) string {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	return fmt.Sprintf("%s | %s | %s | 耗時: %.4f 秒\n", timestamp, filename, description, 0.0)
}

// Append writes one entry to the log file, creating parent directories as
// needed. O_APPEND keeps concurrent line writes from interleaving, so the
// log stays add-only without a separate lock file.
func Append(logPath, entry string) error {
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(entry); err != nil {
		return fmt.Errorf("failed to append log entry: %w", err)
	}
	return nil
}

// ProcessedFiles re-reads the log and returns the set of filenames that have
// a success entry. A missing log file means nothing was processed yet.
func ProcessedFiles(logPath string) (map[string]struct{}, error) {
	processed := make(map[string]struct{})
	f, err := os.Open(logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return processed, nil
		}
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, " | ") || !strings.Contains(line, SuccessMarker) {
			continue
		}
		fields := strings.Split(line, " | ")
		if len(fields) < 2 {
			continue
		}
		processed[strings.TrimSpace(fields[1])] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}
	return processed, nil
}
