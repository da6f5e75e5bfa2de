// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package typemap provides a heterogeneous container keyed by type.
package typemap

import (
	"reflect"
)

// Map holds at most one value per type. The zero value is ready to use.
type Map struct {
	m map[reflect.Type]any
}

// New returns an empty [Map].
func New() *Map {
	return &Map{m: make(map[reflect.Type]any)}
}

func keyOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Insert stores v under its static type T, replacing any previous value
// of the same type.
func Insert[T any](m *Map, v T) {
	InsertAs(m, keyOf[T](), v)
}

// InsertAs stores v under the given type. It is meant for callers which
// erased the static type of v but captured it beforehand.
func InsertAs(m *Map, typ reflect.Type, v any) {
	if m.m == nil {
		m.m = make(map[reflect.Type]any)
	}
	m.m[typ] = v
}

// Get returns the value stored for type T.
func Get[T any](m *Map) (T, bool) {
	var zero T
	if m == nil || m.m == nil {
		return zero, false
	}
	v, ok := m.m[keyOf[T]()]
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// Len returns the number of stored types.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.m)
}

// Clone returns a shallow copy of m.
func (m *Map) Clone() *Map {
	c := New()
	if m == nil {
		return c
	}
	for k, v := range m.m {
		c.m[k] = v
	}
	return c
}

// TypeOf returns the key [Map] uses for values of type T.
func TypeOf[T any]() reflect.Type {
	return keyOf[T]()
}
