package audit

import (
	"sort"
	"sync/atomic"

	gocache "github.com/patrickmn/go-cache"
)

// MemorySink keeps audit entries in process memory
type MemorySink struct {
	entries *gocache.Cache
	seq     atomic.Int64
}

// NewMemorySink creates an in-memory sink. Entries never expire.
func NewMemorySink() *MemorySink {
	return &MemorySink{entries: gocache.New(gocache.NoExpiration, 0)}
}

// RecordStep stores a recovery step
func (s *MemorySink) RecordStep(label string, payload any, category string) error {
	s.put(newStep(label, payload, category))
	return nil
}

// RecordError stores a raw error with its context
func (s *MemorySink) RecordError(label string, err error, context any) error {
	s.put(newError(label, err, context))
	return nil
}

func (s *MemorySink) put(e Entry) {
	e.Seq = s.seq.Add(1)
	s.entries.SetDefault(e.ID, e)
}

// Entries returns every entry in insertion order
func (s *MemorySink) Entries() ([]Entry, error) {
	items := s.entries.Items()
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, item.Object.(Entry))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Seq < entries[j].Seq })
	return entries, nil
}

// Close drops all entries
func (s *MemorySink) Close() error {
	s.entries.Flush()
	return nil
}
