// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package web

import (
	"context"
	"log/slog"
	"reflect"

	"github.com/z5labs/strata/pkg/slogfield"
	"github.com/z5labs/strata/pkg/typemap"
)

func typeOf[T any]() reflect.Type {
	return typemap.TypeOf[T]()
}

// dataFactory constructs one application data entry per worker.
type dataFactory struct {
	typ    reflect.Type
	create func(context.Context) (any, error)
}

func newDataFactory[T any](f func(context.Context) (T, error)) dataFactory {
	return dataFactory{
		typ: typeOf[T](),
		create: func(ctx context.Context) (any, error) {
			return f(ctx)
		},
	}
}

// DataFactoryError is logged when a data factory fails during worker startup.
type DataFactoryError struct {
	Type  reflect.Type
	Cause error
}

// Error implements the [builtin.error] interface.
func (e DataFactoryError) Error() string {
	return "failed to construct application data of type " + e.Type.String() + ": " + e.Cause.Error()
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e DataFactoryError) Unwrap() error {
	return e.Cause
}

// buildData resolves every data entry for a single worker. Eager entries
// are applied first followed by factory results, both in registration
// order, so later registrations of the same type win. Failed factories
// are logged and their entries omitted.
func buildData(ctx context.Context, log *slog.Logger, eager *typemap.Map, factories []dataFactory) *typemap.Map {
	data := eager.Clone()
	for _, df := range factories {
		v, err := df.create(ctx)
		if err != nil {
			log.ErrorContext(
				ctx,
				"failed to construct application data",
				slogfield.Type("type", df.typ),
				slogfield.Error(DataFactoryError{Type: df.typ, Cause: err}),
			)
			continue
		}
		typemap.InsertAs(data, df.typ, v)
	}
	return data
}
