// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package guard provides predicates over incoming requests which decide
// whether a resource or route is eligible to handle them.
package guard

import (
	"net"
	"net/http"
	"strings"
)

// Guard represents anything that can accept or reject a request.
type Guard interface {
	Check(*http.Request) bool
}

// Func is a functional implementation of the [Guard] interface.
type Func func(*http.Request) bool

// Check implements the [Guard] interface.
func (f Func) Check(r *http.Request) bool {
	return f(r)
}

// MethodGuard accepts requests with a specific HTTP method.
type MethodGuard string

// Check implements the [Guard] interface.
func (g MethodGuard) Check(r *http.Request) bool {
	return r.Method == string(g)
}

// Method returns a [Guard] which accepts requests with the given HTTP method.
func Method(method string) MethodGuard {
	return MethodGuard(method)
}

// Get returns a [MethodGuard] which accepts GET requests.
func Get() MethodGuard { return Method(http.MethodGet) }

// Post returns a [MethodGuard] which accepts POST requests.
func Post() MethodGuard { return Method(http.MethodPost) }

// Put returns a [MethodGuard] which accepts PUT requests.
func Put() MethodGuard { return Method(http.MethodPut) }

// Delete returns a [MethodGuard] which accepts DELETE requests.
func Delete() MethodGuard { return Method(http.MethodDelete) }

// Patch returns a [MethodGuard] which accepts PATCH requests.
func Patch() MethodGuard { return Method(http.MethodPatch) }

// Head returns a [MethodGuard] which accepts HEAD requests.
func Head() MethodGuard { return Method(http.MethodHead) }

// Options returns a [MethodGuard] which accepts OPTIONS requests.
func Options() MethodGuard { return Method(http.MethodOptions) }

// Header returns a [Guard] which accepts requests where the named header
// is present and equal to value.
func Header(name, value string) Guard {
	return Func(func(r *http.Request) bool {
		vs, ok := r.Header[http.CanonicalHeaderKey(name)]
		if !ok {
			return false
		}
		for _, v := range vs {
			if v == value {
				return true
			}
		}
		return false
	})
}

// Host returns a [Guard] which accepts requests for the given host name.
// Any port in the request host is ignored.
func Host(host string) Guard {
	return Func(func(r *http.Request) bool {
		h := r.Host
		if name, _, err := net.SplitHostPort(h); err == nil {
			h = name
		}
		return strings.EqualFold(h, host)
	})
}

// AllGuard represents multiple Guards all and'd together.
type AllGuard struct {
	guards []Guard
}

// All returns a [Guard] which accepts a request only if every
// one of the given guards accepts it.
func All(guards ...Guard) AllGuard {
	return AllGuard{
		guards: guards,
	}
}

// Check implements the [Guard] interface.
func (g AllGuard) Check(r *http.Request) bool {
	for _, guard := range g.guards {
		if !guard.Check(r) {
			return false
		}
	}
	return true
}

// AnyGuard represents multiple Guards all or'd together.
type AnyGuard struct {
	guards []Guard
}

// Any returns a [Guard] which accepts a request if at least one
// of the given guards accepts it.
func Any(guards ...Guard) AnyGuard {
	return AnyGuard{
		guards: guards,
	}
}

// Check implements the [Guard] interface.
func (g AnyGuard) Check(r *http.Request) bool {
	for _, guard := range g.guards {
		if guard.Check(r) {
			return true
		}
	}
	return false
}

// NotGuard negates the underlying Guard.
type NotGuard struct {
	guard Guard
}

// Not returns a [Guard] which accepts every request the given guard rejects.
func Not(guard Guard) NotGuard {
	return NotGuard{
		guard: guard,
	}
}

// Check implements the [Guard] interface.
func (g NotGuard) Check(r *http.Request) bool {
	return !g.guard.Check(r)
}
