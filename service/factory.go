// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package service

import (
	"context"
	"fmt"
)

// Factory builds [Service]s from a configuration value.
//
// Every call to NewService must return a Service whose internal state is
// independent of any previously returned Service.
type Factory[Cfg, Req, Resp any] interface {
	NewService(context.Context, Cfg) (Service[Req, Resp], error)
}

// FactoryFunc is a functional implementation of the [Factory] interface.
type FactoryFunc[Cfg, Req, Resp any] func(context.Context, Cfg) (Service[Req, Resp], error)

// NewService implements the [Factory] interface.
func (f FactoryFunc[Cfg, Req, Resp]) NewService(ctx context.Context, cfg Cfg) (Service[Req, Resp], error) {
	return f(ctx, cfg)
}

// NewServiceError represents a failure to construct a [Service]. It is
// always fatal to the worker which attempted the construction.
type NewServiceError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e NewServiceError) Error() string {
	return fmt.Sprintf("failed to construct service: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e NewServiceError) Unwrap() error {
	return e.Cause
}

// Static returns a [Factory] which always returns svc. It should only
// be used for services which hold no per-worker state.
func Static[Cfg, Req, Resp any](svc Service[Req, Resp]) Factory[Cfg, Req, Resp] {
	return FactoryFunc[Cfg, Req, Resp](func(_ context.Context, _ Cfg) (Service[Req, Resp], error) {
		return svc, nil
	})
}

// FuncFactory returns a [Factory] which calls f for every new [Service].
func FuncFactory[Cfg, Req, Resp any](f func() Service[Req, Resp]) Factory[Cfg, Req, Resp] {
	return FactoryFunc[Cfg, Req, Resp](func(_ context.Context, _ Cfg) (Service[Req, Resp], error) {
		return f(), nil
	})
}

// MapConfig adapts a [Factory] expecting configuration of type To into
// one accepting configuration of type From.
func MapConfig[From, To, Req, Resp any](f Factory[To, Req, Resp], mapper func(From) To) Factory[From, Req, Resp] {
	return FactoryFunc[From, Req, Resp](func(ctx context.Context, cfg From) (Service[Req, Resp], error) {
		return f.NewService(ctx, mapper(cfg))
	})
}

// MapInitErr rewrites any construction error returned by f.
func MapInitErr[Cfg, Req, Resp any](f Factory[Cfg, Req, Resp], mapper func(error) error) Factory[Cfg, Req, Resp] {
	return FactoryFunc[Cfg, Req, Resp](func(ctx context.Context, cfg Cfg) (Service[Req, Resp], error) {
		svc, err := f.NewService(ctx, cfg)
		if err != nil {
			return nil, mapper(err)
		}
		return svc, nil
	})
}
