// Package store implements the append-only mood log: a UTF-8 text file
// holding one JSON-serialized record per line. Durability and forward
// progress win over strictness: corrupt lines are skipped on read, missing
// files read as empty, and absent delete keys are no-ops.
package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/seorin-dev/moodlog/internal/color"
	"github.com/seorin-dev/moodlog/internal/models"
)

// Store owns the log file. Append and DeleteByKey are serialized behind a
// single mutex so concurrent sessions cannot interleave partially written
// lines; reads go straight to the file and tolerate whatever the last
// complete write left behind.
type Store struct {
	path string
	mu   sync.Mutex
}

// New creates a store over the given log file path. The file itself is
// created lazily on the first append.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the log file path.
func (s *Store) Path() string {
	return s.path
}

// Append serializes the record and writes it as one line. The containing
// directory is created if absent and the write is flushed to disk before
// returning; prior lines are never touched.
func (s *Store) Append(rec *models.MoodRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to flush log: %w", err)
	}

	return nil
}

// readAll returns every parseable record in append order. Malformed lines
// are skipped; a missing file reads as empty.
func (s *Store) readAll() ([]*models.MoodRecord, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	defer file.Close()

	var records []*models.MoodRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec models.MoodRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			// Corrupt line: skip, keep reading.
			continue
		}
		records = append(records, &rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}

	return records, nil
}

// ReadLastN returns up to n most recently appended valid records, newest
// first. n <= 0 and a missing file both yield an empty result.
func (s *Store) ReadLastN(n int) ([]*models.MoodRecord, error) {
	if n <= 0 {
		return nil, nil
	}

	records, err := s.readAll()
	if err != nil {
		return nil, err
	}

	if len(records) > n {
		records = records[len(records)-n:]
	}

	// Reverse into newest-first order.
	out := make([]*models.MoodRecord, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		out = append(out, records[i])
	}
	return out, nil
}

// ReadByDate returns all records whose timestamp falls on the given
// YYYY-MM-DD date key, newest first. Records from before final colors were
// tracked get final_color derived from the palette base hex at read time;
// the log itself is not rewritten.
func (s *Store) ReadByDate(dateKey string) ([]*models.MoodRecord, error) {
	records, err := s.readAll()
	if err != nil {
		return nil, err
	}

	var out []*models.MoodRecord
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		if rec.DateKey() != dateKey {
			continue
		}
		backfillFinalColor(rec)
		out = append(out, rec)
	}
	return out, nil
}

// CalendarAggregate buckets the given month's records by date key. Buckets
// are ordered oldest first, matching a day's narrative sequence. Month
// values outside 1-12 roll over into the adjacent year.
func (s *Store) CalendarAggregate(year, month int) (map[string][]*models.MoodRecord, error) {
	// Normalized calendar arithmetic: month 0 is December of year-1,
	// month 13 is January of year+1.
	anchor := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)

	records, err := s.readAll()
	if err != nil {
		return nil, err
	}

	out := make(map[string][]*models.MoodRecord)
	for _, rec := range records {
		t, err := rec.Time()
		if err != nil {
			continue
		}
		if t.Year() != anchor.Year() || t.Month() != anchor.Month() {
			continue
		}
		backfillFinalColor(rec)
		key := t.Format(models.DateLayout)
		out[key] = append(out[key], rec)
	}
	return out, nil
}

// RecordsLast24h returns all records timestamped within 24 hours of now.
// Used solely by the daily rate-limit gate.
func (s *Store) RecordsLast24h() ([]*models.MoodRecord, error) {
	records, err := s.readAll()
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-24 * time.Hour)
	var out []*models.MoodRecord
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		t, err := rec.Time()
		if err != nil {
			continue
		}
		if t.Before(cutoff) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// DeleteByKey removes the first record whose date_time equals key and
// reports whether a deletion occurred. An absent key is a no-op, not an
// error. If two records share a to-the-second timestamp only the first
// (oldest) match is removed; keys are not guaranteed unique.
func (s *Store) DeleteByKey(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to open log: %w", err)
	}

	// Keep every other line verbatim, parseable or not.
	var kept []string
	deleted := false
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !deleted {
			var rec models.MoodRecord
			if err := json.Unmarshal([]byte(trimmed), &rec); err == nil && rec.DateTime == key {
				deleted = true
				continue
			}
		}
		kept = append(kept, line)
	}
	if err := scanner.Err(); err != nil {
		file.Close()
		return false, fmt.Errorf("failed to read log: %w", err)
	}
	file.Close()

	if !deleted {
		return false, nil
	}

	// Rewrite through a temp file so a crash never truncates the log.
	tmp := s.path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return false, fmt.Errorf("failed to create temp log: %w", err)
	}
	for _, line := range kept {
		if _, err := fmt.Fprintln(out, line); err != nil {
			out.Close()
			os.Remove(tmp)
			return false, fmt.Errorf("failed to rewrite log: %w", err)
		}
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(tmp)
		return false, fmt.Errorf("failed to flush rewritten log: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return false, fmt.Errorf("failed to close rewritten log: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return false, fmt.Errorf("failed to replace log: %w", err)
	}

	return true, nil
}

// backfillFinalColor derives final_color from the palette base hex for
// records written before color progression was tracked.
func backfillFinalColor(rec *models.MoodRecord) {
	if rec.FinalColor == "" && rec.Color() != "" {
		rec.FinalColor = color.BaseHex(rec.Color())
	}
}
