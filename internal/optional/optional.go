// Package optional provides a JSON field type that remembers whether a key
// was present in the decoded document, so that "absent" and "explicit null"
// can be told apart.
package optional

import (
	"bytes"
	"encoding/json"
)

// Field holds a value decoded from a JSON object key.
//
//	absent:  Set == false
//	null:    Set == true,  Null == true
//	value:   Set == true,  Null == false
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Of returns a Field carrying v.
func Of[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// Null returns a Field explicitly set to null.
func Null[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

// UnmarshalJSON is only invoked by encoding/json when the key is present,
// which is what marks the field as set.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(data, &f.Value)
}
