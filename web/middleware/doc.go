// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package middleware provides stock transforms to be registered with web.Wrap.
//
// Every middleware forwards readiness to the service it wraps and only
// invokes it from Call, so readiness is awaited exactly once per request.
package middleware

import (
	"github.com/z5labs/strata/service"
	"github.com/z5labs/strata/web"
)

// Transform is the shape of every middleware in this package.
type Transform = service.Transform[*web.Request, *web.Response]

type handler = service.Service[*web.Request, *web.Response]

func transform(f func(handler) handler) Transform {
	return service.TransformFunc[*web.Request, *web.Response](f)
}
