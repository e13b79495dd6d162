package value

import (
	"bytes"
	"encoding/json"
)

// Map is a string-keyed map that remembers insertion order.
// Binding a data-map directive iterates keys in that order.
type Map struct {
	keys   []string
	values map[string]any
}

// NewMap creates an empty ordered map
func NewMap() *Map {
	return &Map{values: make(map[string]any)}
}

// MapOf builds a Map from alternating key/value arguments
func MapOf(kv ...any) *Map {
	m := NewMap()
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m.Set(key, kv[i+1])
	}
	return m
}

// Set stores value under key. Existing keys keep their position.
func (m *Map) Set(key string, value any) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key
func (m *Map) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order
func (m *Map) Keys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Len returns the number of entries
func (m *Map) Len() int {
	return len(m.keys)
}

// Fields returns the entries in insertion order
func (m *Map) Fields() []Field {
	fields := make([]Field, len(m.keys))
	for i, k := range m.keys {
		fields[i] = Field{Key: k, Value: m.values[k]}
	}
	return fields
}

// MarshalJSON writes the entries as a JSON object in insertion order
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
