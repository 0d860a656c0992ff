// Package cache stores validation verdicts so unchanged records are not re-scored.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/qualigate/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// keyPrefix changes whenever the cached result layout changes
const keyPrefix = "qualigate:v1:"

// RecordKey derives a cache key from a serialized record and the serialized
// configuration it was scored under
func RecordKey(record, config []byte) string {
	h := sha256.New()
	h.Write(record)
	h.Write([]byte{0})
	h.Write(config)
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// New builds the cache described by cfg; a disabled cache never hits
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return Nop{}
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}

// Nop caches nothing
type Nop struct{}

func (Nop) Get(string) ([]byte, bool)               { return nil, false }
func (Nop) Set(string, []byte, time.Duration) error { return nil }
func (Nop) Delete(string) error                     { return nil }
func (Nop) Clear() error                            { return nil }
