// Package optional provides a tri-state field wrapper for partial updates.
//
// A Field is either absent (the key never appeared in the payload),
// present with a value, or present and null. Decoding a JSON object into a
// struct of Fields records which keys the client actually sent, so an
// update can apply only those keys on top of an existing record.
package optional

import (
	"bytes"
	"encoding/json"
)

// Field holds a value that may be absent, null, or set.
type Field[T any] struct {
	Set   bool
	Value *T
}

// Of returns a present field holding v.
func Of[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: &v}
}

// Null returns a present field with no value.
func Null[T any]() Field[T] {
	return Field[T]{Set: true}
}

// FromPtr returns a present field holding p, which may be nil.
func FromPtr[T any](p *T) Field[T] {
	return Field[T]{Set: true, Value: p}
}

// IsNull reports whether the field was supplied with an explicit null.
func (f Field[T]) IsNull() bool {
	return f.Set && f.Value == nil
}

// Apply writes the field onto dst when it is present. A present null
// clears dst.
func (f Field[T]) Apply(dst **T) {
	if !f.Set {
		return
	}
	if f.Value == nil {
		*dst = nil
		return
	}
	v := *f.Value
	*dst = &v
}

// OrElse returns the field value, or fallback when the field is absent.
// A present null yields nil.
func (f Field[T]) OrElse(fallback *T) *T {
	if !f.Set {
		return fallback
	}
	return f.Value
}

// UnmarshalJSON marks the field present. encoding/json only calls it when
// the key exists in the object.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.Value = &v
	return nil
}

// MarshalJSON encodes the value, or null when the field is absent or null.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if f.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*f.Value)
}
