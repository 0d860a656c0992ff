package cache

import (
	"encoding/json"
	"fmt"

	"github.com/ppiankov/qualigate/internal/model"
)

// Results caches validation verdicts per record and configuration
type Results struct {
	cache  Cache
	config []byte
}

// NewResults wraps c. Changing cfg invalidates every earlier entry.
func NewResults(c Cache, cfg model.Config) (*Results, error) {
	fingerprint, err := json.Marshal(cfg.Thresholds)
	if err != nil {
		return nil, fmt.Errorf("fingerprint thresholds: %w", err)
	}
	extra, err := json.Marshal([]any{cfg.Weights, cfg.DefaultWeight, cfg.Sources, cfg.Drivers})
	if err != nil {
		return nil, fmt.Errorf("fingerprint config: %w", err)
	}
	return &Results{cache: c, config: append(fingerprint, extra...)}, nil
}

// Key returns the cache key for rec, false when rec cannot be serialized
func (r *Results) Key(rec model.Record) (string, bool) {
	data, err := rec.JSON()
	if err != nil {
		return "", false
	}
	return RecordKey(data, r.config), true
}

// Get returns the cached verdict for rec
func (r *Results) Get(rec model.Record) (*model.ValidationResult, bool) {
	key, ok := r.Key(rec)
	if !ok {
		return nil, false
	}
	data, found := r.cache.Get(key)
	if !found {
		return nil, false
	}

	var result model.ValidationResult
	if err := json.Unmarshal(data, &result); err != nil {
		_ = r.cache.Delete(key)
		return nil, false
	}
	return &result, true
}

// Put stores the verdict for rec. Records that cannot be serialized are skipped.
func (r *Results) Put(rec model.Record, result *model.ValidationResult) error {
	key, ok := r.Key(rec)
	if !ok {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return r.cache.Set(key, data, 0)
}
