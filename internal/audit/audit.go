// Package audit persists recovery steps and raw errors so failed analyses can
// be inspected after the fact.
package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/qualigate/internal/model"
)

// Entry kinds
const (
	KindStep  = "step"
	KindError = "error"
)

// Sink receives recovery audit events. Implementations must be safe for concurrent use.
type Sink interface {
	RecordStep(label string, payload any, category string) error
	RecordError(label string, err error, context any) error
}

// Store is a Sink that can be read back and closed
type Store interface {
	Sink
	Entries() ([]Entry, error)
	Close() error
}

// Entry is one persisted audit event
type Entry struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Label      string          `json:"label"`
	Category   string          `json:"category,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Error      string          `json:"error,omitempty"`
	RecordedAt time.Time       `json:"recorded_at"`
	Seq        int64           `json:"seq"` // insertion order within a store
}

// New opens the store selected by cfg.Backend
func New(cfg model.AuditConfig) (Store, error) {
	switch cfg.Backend {
	case "", "none":
		return Nop{}, nil
	case "memory":
		return NewMemorySink(), nil
	case "file":
		return NewFileSink(cfg.Dir), nil
	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "qualigate-audit.db"
		}
		return OpenSQLite(dsn)
	default:
		return nil, fmt.Errorf("unknown audit backend: %s (supported: none, memory, file, sqlite)", cfg.Backend)
	}
}

func newStep(label string, payload any, category string) Entry {
	return Entry{
		ID:         uuid.NewString(),
		Kind:       KindStep,
		Label:      label,
		Category:   category,
		Payload:    encode(payload),
		RecordedAt: time.Now().UTC(),
	}
}

func newError(label string, err error, context any) Entry {
	e := Entry{
		ID:         uuid.NewString(),
		Kind:       KindError,
		Label:      label,
		Payload:    encode(context),
		RecordedAt: time.Now().UTC(),
	}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// encode marshals v, falling back to its printed form for values JSON cannot represent
func encode(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		data, _ = json.Marshal(fmt.Sprint(v))
	}
	return data
}

// Nop discards every event
type Nop struct{}

func (Nop) RecordStep(string, any, string) error { return nil }
func (Nop) RecordError(string, error, any) error { return nil }
func (Nop) Entries() ([]Entry, error)            { return nil, nil }
func (Nop) Close() error                         { return nil }
