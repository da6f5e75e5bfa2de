// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package web

import (
	"context"
	"encoding/json"

	"github.com/z5labs/strata/service"
)

// Handler builds the per worker [service.Service] which handles requests
// for a route, resource default or application default.
type Handler = service.Factory[AppConfig, *Request, *Response]

// HandlerFunc is a stateless handler. It implements both [service.Service]
// and [Handler] so it can be registered directly.
type HandlerFunc func(context.Context, *Request) (*Response, error)

// Ready implements the [service.Service] interface.
func (f HandlerFunc) Ready(ctx context.Context) error {
	return nil
}

// Call implements the [service.Service] interface.
func (f HandlerFunc) Call(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// NewService implements the [service.Factory] interface.
func (f HandlerFunc) NewService(ctx context.Context, cfg AppConfig) (service.Service[*Request, *Response], error) {
	return f, nil
}

// Extractor produces a typed handler argument from a [Request].
type Extractor[T any] interface {
	Extract(context.Context, *Request) (T, error)
}

// ExtractorFunc is a functional implementation of the [Extractor] interface.
type ExtractorFunc[T any] func(context.Context, *Request) (T, error)

// Extract implements the [Extractor] interface.
func (f ExtractorFunc[T]) Extract(ctx context.Context, req *Request) (T, error) {
	return f(ctx, req)
}

// With adapts f into a [HandlerFunc] whose argument is produced by ex.
// Extraction failures are rendered into a response and f is never called.
func With[T any](ex Extractor[T], f func(context.Context, *Request, T) (*Response, error)) HandlerFunc {
	return func(ctx context.Context, req *Request) (*Response, error) {
		v, err := ex.Extract(ctx, req)
		if err != nil {
			return req.RenderError(ctx, ExtractError{Cause: err}), nil
		}
		return f(ctx, req, v)
	}
}

// With2 is [With] for handlers which take two extracted arguments.
// Extractors are run in argument order and the first failure wins.
func With2[A, B any](exA Extractor[A], exB Extractor[B], f func(context.Context, *Request, A, B) (*Response, error)) HandlerFunc {
	return func(ctx context.Context, req *Request) (*Response, error) {
		a, err := exA.Extract(ctx, req)
		if err != nil {
			return req.RenderError(ctx, ExtractError{Cause: err}), nil
		}
		b, err := exB.Extract(ctx, req)
		if err != nil {
			return req.RenderError(ctx, ExtractError{Cause: err}), nil
		}
		return f(ctx, req, a, b)
	}
}

// FromData extracts the application data of type T.
func FromData[T any]() Extractor[T] {
	return ExtractorFunc[T](func(_ context.Context, req *Request) (T, error) {
		return GetData[T](req)
	})
}

// FromExtension extracts the extension of type T. A missing extension is
// reported as a [MissingDataError].
func FromExtension[T any]() Extractor[T] {
	return ExtractorFunc[T](func(_ context.Context, req *Request) (T, error) {
		v, ok := GetExtension[T](req)
		if !ok {
			return v, MissingDataError{Type: typeOf[T]()}
		}
		return v, nil
	})
}

// FromPath extracts a dynamic path segment captured by the matched resource.
func FromPath(name string) Extractor[string] {
	return ExtractorFunc[string](func(_ context.Context, req *Request) (string, error) {
		v, ok := req.Param(name)
		if !ok {
			return "", MissingParamError{Name: name}
		}
		return v, nil
	})
}

// FromQuery extracts a required query parameter.
func FromQuery(name string) Extractor[string] {
	return ExtractorFunc[string](func(_ context.Context, req *Request) (string, error) {
		q := req.HTTP().URL.Query()
		if !q.Has(name) {
			return "", MissingQueryError{Name: name}
		}
		return q.Get(name), nil
	})
}

// FromJSON decodes the request body as JSON into a value of type T.
func FromJSON[T any]() Extractor[T] {
	return ExtractorFunc[T](func(_ context.Context, req *Request) (T, error) {
		var v T
		err := json.NewDecoder(req.HTTP().Body).Decode(&v)
		return v, err
	})
}
