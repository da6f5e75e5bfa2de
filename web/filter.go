// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package web

import (
	"context"

	"github.com/z5labs/strata/service"
)

// FilterResult is the outcome of a filter step. It either carries the
// request on to the next step or a response which ends the chain.
type FilterResult struct {
	req  *Request
	resp *Response
}

// Next continues the filter chain with req.
func Next(req *Request) FilterResult {
	return FilterResult{req: req}
}

// Respond ends the filter chain with resp. The router and every
// handler are skipped.
func Respond(resp *Response) FilterResult {
	return FilterResult{resp: resp}
}

// Request returns the request to continue with, if any.
func (r FilterResult) Request() (*Request, bool) {
	return r.req, r.resp == nil
}

// Response returns the short circuited response, if any.
func (r FilterResult) Response() (*Response, bool) {
	return r.resp, r.resp != nil
}

// Filter builds a pre-routing request step.
type Filter = service.Factory[AppConfig, *Request, FilterResult]

// FilterFunc is a stateless filter step. It implements both [service.Service]
// and [Filter].
type FilterFunc func(context.Context, *Request) (FilterResult, error)

// Ready implements the [service.Service] interface.
func (f FilterFunc) Ready(ctx context.Context) error {
	return nil
}

// Call implements the [service.Service] interface.
func (f FilterFunc) Call(ctx context.Context, req *Request) (FilterResult, error) {
	return f(ctx, req)
}

// NewService implements the [service.Factory] interface.
func (f FilterFunc) NewService(ctx context.Context, cfg AppConfig) (service.Service[*Request, FilterResult], error) {
	return f, nil
}

// filterStep lifts a filter into a step of the chain. A response produced
// by an earlier step is passed through untouched.
type filterStep struct {
	svc service.Service[*Request, FilterResult]
}

// Ready implements the [service.Service] interface. The filter is only
// readied once a request actually reaches it.
func (s filterStep) Ready(ctx context.Context) error {
	return nil
}

// Call implements the [service.Service] interface.
func (s filterStep) Call(ctx context.Context, in FilterResult) (FilterResult, error) {
	if in.resp != nil {
		return in, nil
	}
	out, err := service.Call(ctx, s.svc, in.req)
	if err != nil {
		return out, err
	}
	if out.req == nil && out.resp == nil {
		return Next(in.req), nil
	}
	return out, nil
}

type identityFilter struct{}

func (identityFilter) Ready(ctx context.Context) error {
	return nil
}

func (identityFilter) Call(ctx context.Context, in FilterResult) (FilterResult, error) {
	return in, nil
}

func buildFilterChain(ctx context.Context, cfg AppConfig, filters []Filter) (service.Service[FilterResult, FilterResult], error) {
	var chain service.Service[FilterResult, FilterResult] = identityFilter{}
	for _, f := range filters {
		svc, err := f.NewService(ctx, cfg)
		if err != nil {
			return nil, err
		}
		chain = service.AndThen[FilterResult, FilterResult, FilterResult](chain, filterStep{svc: svc})
	}
	return chain, nil
}
