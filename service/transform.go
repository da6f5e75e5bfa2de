// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package service

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Transform produces a new [Service] from an existing one. The returned
// Service owns the wrapped Service exclusively.
type Transform[Req, Resp any] interface {
	Wrap(Service[Req, Resp]) Service[Req, Resp]
}

// TransformFunc is a functional implementation of the [Transform] interface.
type TransformFunc[Req, Resp any] func(Service[Req, Resp]) Service[Req, Resp]

// Wrap implements the [Transform] interface.
func (f TransformFunc[Req, Resp]) Wrap(svc Service[Req, Resp]) Service[Req, Resp] {
	return f(svc)
}

// Identity is the no-op [Transform].
type Identity[Req, Resp any] struct{}

// Wrap implements the [Transform] interface.
func (Identity[Req, Resp]) Wrap(svc Service[Req, Resp]) Service[Req, Resp] {
	return svc
}

// Stack composes two [Transform]s such that outer observes
// the request first and the response last.
type Stack[Req, Resp any] struct {
	inner Transform[Req, Resp]
	outer Transform[Req, Resp]
}

// NewStack returns a [Stack] which wraps a [Service] with inner and then with outer.
func NewStack[Req, Resp any](inner, outer Transform[Req, Resp]) Stack[Req, Resp] {
	return Stack[Req, Resp]{
		inner: inner,
		outer: outer,
	}
}

// Wrap implements the [Transform] interface.
func (s Stack[Req, Resp]) Wrap(svc Service[Req, Resp]) Service[Req, Resp] {
	return s.outer.Wrap(s.inner.Wrap(svc))
}

// Limit returns a [Transform] which bounds the number of in-flight calls
// to n. Ready acquires a slot, waiting while all slots are taken, and
// the slot is released once Call returns.
//
// Calling Call without a successful Ready panics. Limit panics if n is
// less than 1.
func Limit[Req, Resp any](n int64) Transform[Req, Resp] {
	if n < 1 {
		panic("service: limit must be at least 1")
	}
	return TransformFunc[Req, Resp](func(svc Service[Req, Resp]) Service[Req, Resp] {
		return &limited[Req, Resp]{
			sem: semaphore.NewWeighted(n),
			svc: svc,
		}
	})
}

type limited[Req, Resp any] struct {
	sem *semaphore.Weighted
	svc Service[Req, Resp]
}

// Ready implements the [Service] interface.
func (s *limited[Req, Resp]) Ready(ctx context.Context) error {
	err := s.sem.Acquire(ctx, 1)
	if err != nil {
		return err
	}

	err = s.svc.Ready(ctx)
	if err != nil {
		s.sem.Release(1)
		return err
	}
	return nil
}

// Call implements the [Service] interface.
func (s *limited[Req, Resp]) Call(ctx context.Context, req Req) (Resp, error) {
	defer s.sem.Release(1)

	return s.svc.Call(ctx, req)
}
