package model

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/spf13/cast"
)

// Record is a generated analysis: category name -> sub-record (mapping or sequence).
// Records arrive as decoded JSON, so every value is loosely typed.
type Record map[string]any

// Category names read by the validators and the auto-fixer
const (
	CategoryDrivers        = "drivers_mentais"
	CategoryProofs         = "provas_visuais"
	CategoryAntiObjection  = "sistema_anti_objecao"
	CategoryAvatar         = "avatar_ultra_detalhado"
	CategoryForensics      = "metricas_forenses"
	CategoryWebResearch    = "pesquisa_web_massiva"
	CategoryForensicDetail = "metricas_forenses_detalhadas"
	CategoryMetadata       = "metadata"

	// Auto-fix targets use the generator's output names
	CategoryCustomDrivers = "drivers_mentais_customizados"
	CategoryProofArsenal  = "provas_visuais_arsenal"
)

// Get returns the raw value stored under key, nil when absent
func (r Record) Get(key string) any {
	if r == nil {
		return nil
	}
	return r[key]
}

// Section returns the mapping stored under key, or an empty mapping
func (r Record) Section(key string) map[string]any {
	if m, ok := AsMap(r.Get(key)); ok {
		return m
	}
	return map[string]any{}
}

// JSON serializes the record
func (r Record) JSON() ([]byte, error) {
	return json.Marshal(map[string]any(r))
}

// ParseRecord decodes a JSON document into a Record
func ParseRecord(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if r == nil {
		r = Record{}
	}
	return r, nil
}

// AsMap reports whether v is a string-keyed mapping and returns it
func AsMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Record:
		return map[string]any(m), true
	case map[any]any:
		out, err := cast.ToStringMapE(m)
		return out, err == nil
	default:
		return nil, false
	}
}

// AsList reports whether v is a sequence and returns its items
func AsList(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if items, err := cast.ToSliceE(v); err == nil {
		return items, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

// Size returns the length of a mapping, sequence or string; zero otherwise
func Size(v any) int {
	if m, ok := AsMap(v); ok {
		return len(m)
	}
	if s, ok := v.(string); ok {
		return len([]rune(s))
	}
	if items, ok := AsList(v); ok {
		return len(items)
	}
	return 0
}

// Truthy mirrors the loose truthiness the generator relies on:
// empty collections, empty strings, zero numbers, false and nil are all false.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	}
	if m, ok := AsMap(v); ok {
		return len(m) > 0
	}
	if items, ok := AsList(v); ok {
		return len(items) > 0
	}
	if f, err := cast.ToFloat64E(v); err == nil {
		return f != 0
	}
	return true
}

// Text renders a value for substring scans
func Text(v any) string {
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
