// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/z5labs/strata/internal/try"

	"gopkg.in/yaml.v3"
)

// decoded applies a document of nested maps decoded from r.
type decoded struct {
	r         io.Reader
	unmarshal func([]byte, any) error
	invalid   func(error) error
}

// Apply implements the [Source] interface. The reader is closed once
// the document is consumed if it implements [io.Closer].
func (src decoded) Apply(store Store) (err error) {
	defer try.Close(&err, src.r)

	b, err := io.ReadAll(src.r)
	if err != nil {
		return err
	}

	m := make(map[string]any)
	err = src.unmarshal(b, &m)
	if err != nil {
		return src.invalid(err)
	}
	return Map(m).Apply(store)
}

// Yaml is a [Source] read from a YAML document.
type Yaml struct {
	decoded
}

// FromYaml returns a [Yaml] source reading from r.
func FromYaml(r io.Reader) Yaml {
	return Yaml{decoded{
		r:         r,
		unmarshal: yaml.Unmarshal,
		invalid: func(err error) error {
			return InvalidYamlError{cause: err}
		},
	}}
}

// InvalidYamlError is returned by [Yaml.Apply] for malformed documents.
type InvalidYamlError struct {
	cause error
}

// Error implements the [builtin.error] interface.
func (e InvalidYamlError) Error() string {
	return fmt.Sprintf("invalid yaml: %s", e.cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e InvalidYamlError) Unwrap() error {
	return e.cause
}

// Json is a [Source] read from a JSON object.
type Json struct {
	decoded
}

// FromJson returns a [Json] source reading from r.
func FromJson(r io.Reader) Json {
	return Json{decoded{
		r:         r,
		unmarshal: json.Unmarshal,
		invalid: func(err error) error {
			return InvalidJsonError{cause: err}
		},
	}}
}

// InvalidJsonError is returned by [Json.Apply] for malformed documents.
type InvalidJsonError struct {
	cause error
}

// Error implements the [builtin.error] interface.
func (e InvalidJsonError) Error() string {
	return fmt.Sprintf("invalid json: %s", e.cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e InvalidJsonError) Unwrap() error {
	return e.cause
}
