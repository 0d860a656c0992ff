package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// FileSink writes one JSON file per entry, grouped by category
type FileSink struct {
	dir string
	mu  sync.Mutex
	seq int64
}

// NewFileSink creates a file sink rooted at dir
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

// RecordStep writes a recovery step under <dir>/<category>/
func (s *FileSink) RecordStep(label string, payload any, category string) error {
	return s.write(newStep(label, payload, category))
}

// RecordError writes a raw error under <dir>/errors/
func (s *FileSink) RecordError(label string, err error, context any) error {
	return s.write(newError(label, err, context))
}

func (s *FileSink) write(e Entry) error {
	s.mu.Lock()
	s.seq++
	e.Seq = s.seq
	s.mu.Unlock()

	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	dir := s.path(e)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create audit dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%s.json", e.RecordedAt.Format("20060102T150405.000000000"), unsafeName.ReplaceAllString(e.Label, "_"), e.ID[:8])
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		return fmt.Errorf("write audit file: %w", err)
	}
	return nil
}

// path returns the directory for an entry
func (s *FileSink) path(e Entry) string {
	group := "errors"
	if e.Kind == KindStep {
		group = e.Category
		if group == "" {
			group = "steps"
		}
	}
	return filepath.Join(s.dir, unsafeName.ReplaceAllString(group, "_"))
}

// Entries reads every entry back, ordered by time of recording
func (s *FileSink) Entries() ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(s.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == s.dir {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read audit file: %w", err)
		}
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].RecordedAt.Equal(entries[j].RecordedAt) {
			return entries[i].RecordedAt.Before(entries[j].RecordedAt)
		}
		return entries[i].Seq < entries[j].Seq
	})
	return entries, nil
}

// Close is a no-op; every entry is flushed when recorded
func (s *FileSink) Close() error {
	return nil
}
