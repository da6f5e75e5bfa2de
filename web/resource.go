// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package web

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/z5labs/strata/router"
	"github.com/z5labs/strata/service"
	"github.com/z5labs/strata/web/guard"
)

// ResourceOption configures a [Resource].
type ResourceOption func(*Resource)

// ResourceName names the resource so URLs can be generated for it.
func ResourceName(name string) ResourceOption {
	return func(r *Resource) {
		r.def = r.def.WithName(name)
	}
}

// ResourceGuard adds guards which must all accept a request before
// the resource is considered a match.
func ResourceGuard(guards ...guard.Guard) ResourceOption {
	return func(r *Resource) {
		r.guards = append(r.guards, guards...)
	}
}

// ResourceRoute appends routes to the resource. Routes are tried in order.
func ResourceRoute(routes ...*Route) ResourceOption {
	return func(r *Resource) {
		r.routes = append(r.routes, routes...)
	}
}

// ResourceDefault sets the handler invoked when the resource matches
// but none of its routes accept the request.
func ResourceDefault(h Handler) ResourceOption {
	return func(r *Resource) {
		r.defaultHandler = h
	}
}

// Resource is a path pattern bound to a set of routes.
type Resource struct {
	def            router.ResourceDef
	guards         []guard.Guard
	routes         []*Route
	defaultHandler Handler
}

// NewResource returns a [Resource] for the given path pattern.
// It panics if the pattern is invalid.
func NewResource(pattern string, opts ...ResourceOption) *Resource {
	r := &Resource{
		def: router.MustParse(pattern),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Def returns the parsed path pattern of the resource.
func (r *Resource) Def() router.ResourceDef {
	return r.def
}

func (r *Resource) newService(ctx context.Context, cfg AppConfig) (*resourceService, error) {
	rs := &resourceService{
		pattern: r.def.Pattern(),
		guards:  guard.All(r.guards...),
		routes:  make([]routeService, 0, len(r.routes)),
	}

	for _, route := range r.routes {
		svc, err := route.handler.NewService(ctx, cfg)
		if err != nil {
			return nil, err
		}
		rs.routes = append(rs.routes, routeService{
			guards: guard.All(route.guards...),
			svc:    svc,
		})
		for _, m := range route.methods() {
			if !slices.Contains(rs.allow, m) {
				rs.allow = append(rs.allow, m)
			}
		}
	}

	if r.defaultHandler != nil {
		svc, err := r.defaultHandler.NewService(ctx, cfg)
		if err != nil {
			return nil, err
		}
		rs.defaultSvc = svc
	}
	return rs, nil
}

type routeService struct {
	guards guard.AllGuard
	svc    service.Service[*Request, *Response]
}

type resourceService struct {
	pattern    string
	guards     guard.AllGuard
	routes     []routeService
	defaultSvc service.Service[*Request, *Response]
	allow      []string
}

// Ready implements the [service.Service] interface. Readiness of the
// selected route is awaited when the request is dispatched.
func (s *resourceService) Ready(ctx context.Context) error {
	return nil
}

// Call implements the [service.Service] interface.
func (s *resourceService) Call(ctx context.Context, req *Request) (*Response, error) {
	for _, route := range s.routes {
		if !route.guards.Check(req.HTTP()) {
			continue
		}
		return service.Call(ctx, route.svc, req)
	}
	if s.defaultSvc != nil {
		return service.Call(ctx, s.defaultSvc, req)
	}

	resp := NewResponse(http.StatusMethodNotAllowed)
	if len(s.allow) > 0 {
		resp.Header().Set("Allow", strings.Join(s.allow, ", "))
	}
	return resp, nil
}
