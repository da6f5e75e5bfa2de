// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package router provides path pattern matching and reverse URL generation.
package router

import "fmt"

// Param is a single captured dynamic segment.
type Param struct {
	Name  string
	Value string
}

// Path holds the dynamic segments captured while matching a [ResourceDef].
type Path struct {
	params []Param
}

// Get returns the value captured for the named segment.
func (p Path) Get(name string) (string, bool) {
	for _, param := range p.params {
		if param.Name == name {
			return param.Value, true
		}
	}
	return "", false
}

// Len returns the number of captured segments.
func (p Path) Len() int {
	return len(p.params)
}

// Params returns the captured segments in pattern order.
func (p Path) Params() []Param {
	params := make([]Param, len(p.params))
	copy(params, p.params)
	return params
}

// Option configures a [Router].
type Option func(*options)

type options struct {
	caseInsensitive bool
}

// CaseInsensitive makes every static segment in the [Router] match regardless of case.
func CaseInsensitive() Option {
	return func(o *options) {
		o.caseInsensitive = true
	}
}

type entry[T any] struct {
	def   ResourceDef
	value T
}

// Router is an ordered table of [ResourceDef]s. The order resources are
// added in determines their priority when patterns overlap.
type Router[T any] struct {
	caseInsensitive bool
	entries         []entry[T]
}

// New returns an empty [Router].
func New[T any](opts ...Option) *Router[T] {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return &Router[T]{
		caseInsensitive: o.caseInsensitive,
	}
}

// Add appends a resource to the routing table.
func (r *Router[T]) Add(def ResourceDef, v T) {
	r.entries = append(r.entries, entry[T]{def: def, value: v})
}

// Len returns the number of resources in the routing table.
func (r *Router[T]) Len() int {
	return len(r.entries)
}

// Recognize returns the first resource, in insertion order, whose pattern
// matches path and for which accept returns true. A nil accept accepts every
// matching resource. Resources rejected by accept are not reconsidered.
func (r *Router[T]) Recognize(path string, accept func(T) bool) (T, Path, bool) {
	for _, e := range r.entries {
		p, ok := e.def.Match(path, r.caseInsensitive)
		if !ok {
			continue
		}
		if accept != nil && !accept(e.value) {
			continue
		}
		return e.value, p, true
	}

	var zero T
	return zero, Path{}, false
}

// UnknownResourceError is returned when generating a URL for a name
// which was never registered.
type UnknownResourceError struct {
	Name string
}

// Error implements the [builtin.error] interface.
func (e UnknownResourceError) Error() string {
	return fmt.Sprintf("unknown resource: %s", e.Name)
}

// ResourceMap is a table of named [ResourceDef]s used for URL generation.
// It is safe for concurrent reads once no more resources are added.
type ResourceMap struct {
	defs map[string]ResourceDef
}

// NewResourceMap returns an empty [ResourceMap].
func NewResourceMap() *ResourceMap {
	return &ResourceMap{
		defs: make(map[string]ResourceDef),
	}
}

// Add registers def under its name. Unnamed definitions are ignored and
// later definitions replace earlier ones with the same name.
func (m *ResourceMap) Add(def ResourceDef) {
	if def.Name() == "" {
		return
	}
	m.defs[def.Name()] = def
}

// Lookup returns the [ResourceDef] registered under name.
func (m *ResourceMap) Lookup(name string) (ResourceDef, bool) {
	def, ok := m.defs[name]
	return def, ok
}

// URLFor generates a URL for the named resource by substituting its
// dynamic segments with elems.
func (m *ResourceMap) URLFor(name string, elems ...string) (string, error) {
	def, ok := m.defs[name]
	if !ok {
		return "", UnknownResourceError{Name: name}
	}
	return def.Generate(elems...)
}
