// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package web

import (
	"net/http"

	"github.com/z5labs/strata/web/guard"
)

// Route binds a [Handler] to a set of guards within a [Resource].
type Route struct {
	guards  []guard.Guard
	handler Handler
}

// To returns a [Route] which accepts requests of any method.
func To(h Handler) *Route {
	return &Route{handler: h}
}

// Method returns a [Route] which only accepts requests with the given method.
func Method(method string, h Handler) *Route {
	return To(h).Guard(guard.Method(method))
}

// Get returns a [Route] which only accepts GET requests.
func Get(h Handler) *Route { return Method(http.MethodGet, h) }

// Post returns a [Route] which only accepts POST requests.
func Post(h Handler) *Route { return Method(http.MethodPost, h) }

// Put returns a [Route] which only accepts PUT requests.
func Put(h Handler) *Route { return Method(http.MethodPut, h) }

// Delete returns a [Route] which only accepts DELETE requests.
func Delete(h Handler) *Route { return Method(http.MethodDelete, h) }

// Patch returns a [Route] which only accepts PATCH requests.
func Patch(h Handler) *Route { return Method(http.MethodPatch, h) }

// Head returns a [Route] which only accepts HEAD requests.
func Head(h Handler) *Route { return Method(http.MethodHead, h) }

// Guard adds guards which must all accept a request for the route to handle it.
func (r *Route) Guard(guards ...guard.Guard) *Route {
	r.guards = append(r.guards, guards...)
	return r
}

func (r *Route) methods() []string {
	var methods []string
	for _, g := range r.guards {
		if m, ok := g.(guard.MethodGuard); ok {
			methods = append(methods, string(m))
		}
	}
	return methods
}
