// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"fmt"

	"github.com/z5labs/strata/config/key"
)

// UnknownKeyerError is returned when a source sets a value using a
// [key.Keyer] implementation the store does not understand.
type UnknownKeyerError struct {
	key key.Keyer
}

// Error implements the [builtin.error] interface.
func (e UnknownKeyerError) Error() string {
	return fmt.Sprintf("config source tried setting config value with unknown key.Keyer: %s", e.key.Key())
}

// EmptyKeyChainError is returned when a value is set with an empty [key.Chain].
type EmptyKeyChainError struct {
	Value any
}

// Error implements the [builtin.error] interface.
func (e EmptyKeyChainError) Error() string {
	return fmt.Sprintf("attempted to set value to an empty key chain: %v", e.Value)
}

// UnexpectedKeyValueTypeError is returned when a key which already holds
// a plain value is used as the parent of a nested key. Key is the dotted
// path of the offending key.
type UnexpectedKeyValueTypeError struct {
	Key          string
	ExpectedType string
}

// Error implements the [builtin.error] interface.
func (e UnexpectedKeyValueTypeError) Error() string {
	return fmt.Sprintf("expected key value to be a %s: %s", e.ExpectedType, e.Key)
}

// inMemoryStore is a tree of nested maps. Later writes to the same key
// replace earlier ones.
type inMemoryStore map[string]any

// Set implements the [Store] interface.
func (s inMemoryStore) Set(k key.Keyer, v any) error {
	switch x := k.(type) {
	case key.Name:
		s[string(x)] = v
		return nil
	case key.Chain:
		return s.setChain(x, v)
	default:
		return UnknownKeyerError{key: k}
	}
}

func (s inMemoryStore) setChain(chain key.Chain, v any) error {
	if len(chain) == 0 {
		return EmptyKeyChainError{Value: v}
	}

	m := map[string]any(s)
	last := len(chain) - 1
	for i, k := range chain[:last] {
		child, ok := m[k.Key()]
		if !ok {
			child = make(map[string]any)
			m[k.Key()] = child
		}

		next, ok := child.(map[string]any)
		if !ok {
			return UnexpectedKeyValueTypeError{
				Key:          chain[:i+1].Key(),
				ExpectedType: "map[string]any",
			}
		}
		m = next
	}
	return inMemoryStore(m).Set(chain[last], v)
}
