// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package service defines the readiness/invocation protocol every handler,
// filter and middleware in strata is built on.
//
// A [Service] is asked whether it is [Service.Ready] before each [Service.Call].
// A slow downstream service can hold Ready until it has capacity again, which
// suspends the caller instead of letting it queue unbounded work. Services are
// never constructed directly by the transport layer, instead a [Factory] builds
// one independent instance per worker from a shared configuration value.
package service

import (
	"context"
	"fmt"
)

// Service is a unit of request processing.
//
// Call must only be issued after Ready has returned a nil error. Ready returns
// nil once the service can accept a request, blocks while the service is pending
// and returns the context error if ctx ends first. Any other error returned by
// Ready means the service has permanently failed.
//
// Services built by a [Factory] for a server worker are driven by a single
// goroutine, one request at a time, so they may keep unsynchronized state.
// Values shared across workers must synchronize themselves.
type Service[Req, Resp any] interface {
	Ready(context.Context) error
	Call(context.Context, Req) (Resp, error)
}

// Func is a stateless [Service] which is always ready.
type Func[Req, Resp any] func(context.Context, Req) (Resp, error)

// Ready implements the [Service] interface.
func (f Func[Req, Resp]) Ready(ctx context.Context) error {
	return nil
}

// Call implements the [Service] interface.
func (f Func[Req, Resp]) Call(ctx context.Context, req Req) (Resp, error) {
	return f(ctx, req)
}

// Call awaits readiness of svc and then invokes it with req.
func Call[Req, Resp any](ctx context.Context, svc Service[Req, Resp], req Req) (Resp, error) {
	err := svc.Ready(ctx)
	if err != nil {
		var zero Resp
		return zero, NotReadyError{Cause: err}
	}
	return svc.Call(ctx, req)
}

// NotReadyError is returned by [Call] when a service failed its readiness check.
type NotReadyError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e NotReadyError) Error() string {
	return fmt.Sprintf("service not ready: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e NotReadyError) Unwrap() error {
	return e.Cause
}

type andThen[A, B, C any] struct {
	first  Service[A, B]
	second Service[B, C]
}

// AndThen composes two services sequentially. The response of first is
// the request of second. The composed service is only ready once both
// underlying services are ready.
func AndThen[A, B, C any](first Service[A, B], second Service[B, C]) Service[A, C] {
	return andThen[A, B, C]{
		first:  first,
		second: second,
	}
}

// Ready implements the [Service] interface.
func (s andThen[A, B, C]) Ready(ctx context.Context) error {
	err := s.first.Ready(ctx)
	if err != nil {
		return err
	}
	return s.second.Ready(ctx)
}

// Call implements the [Service] interface.
func (s andThen[A, B, C]) Call(ctx context.Context, req A) (C, error) {
	b, err := s.first.Call(ctx, req)
	if err != nil {
		var zero C
		return zero, err
	}
	return s.second.Call(ctx, b)
}
