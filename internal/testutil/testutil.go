package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/seorin-dev/moodlog/internal/models"
)

// TempLog provisions a temporary data directory with a mood log path for
// tests.
type TempLog struct {
	Dir  string
	Path string
	T    *testing.T
}

// NewTempLog creates a temp dir and returns a fixture pointing at an
// (initially absent) log file inside it.
func NewTempLog(t *testing.T) *TempLog {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "moodlog-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	return &TempLog{
		Dir:  tmpDir,
		Path: filepath.Join(tmpDir, "mood_log.jsonl"),
		T:    t,
	}
}

// Cleanup removes the temp directory.
func (l *TempLog) Cleanup() {
	l.T.Helper()
	if err := os.RemoveAll(l.Dir); err != nil {
		l.T.Errorf("failed to cleanup temp dir: %v", err)
	}
}

// WriteLine appends a raw line to the log file, creating it if needed.
// Useful for seeding malformed lines.
func (l *TempLog) WriteLine(line string) {
	l.T.Helper()

	file, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		l.T.Fatalf("failed to open log: %v", err)
	}
	defer file.Close()

	if _, err := file.WriteString(line + "\n"); err != nil {
		l.T.Fatalf("failed to write line: %v", err)
	}
}

// WriteRecord appends a serialized record line to the log file.
func (l *TempLog) WriteRecord(rec *models.MoodRecord) {
	l.T.Helper()

	data, err := json.Marshal(rec)
	if err != nil {
		l.T.Fatalf("failed to marshal record: %v", err)
	}
	l.WriteLine(string(data))
}

// CountLines returns the number of non-empty lines currently in the log.
func (l *TempLog) CountLines() int {
	l.T.Helper()

	data, err := os.ReadFile(l.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0
		}
		l.T.Fatalf("failed to read log: %v", err)
	}

	count := 0
	for _, line := range splitLines(string(data)) {
		if line != "" {
			count++
		}
	}
	return count
}

// Record builds a minimal valid record with the given color and timestamp.
func Record(color string, at time.Time) *models.MoodRecord {
	text := "entry"
	return &models.MoodRecord{
		DateTime:     at.Format(models.TimeLayout),
		MoodText:     "one line",
		Mode:         models.ModeWrite,
		InitialColor: color,
		TextContent:  &text,
	}
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
