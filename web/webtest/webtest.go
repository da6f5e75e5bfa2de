// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package webtest provides helpers for driving a web.App in tests
// without a network listener.
package webtest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/z5labs/strata/service"
	"github.com/z5labs/strata/web"
)

// InitService constructs a single worker's service graph for app with
// a zero [web.AppConfig]. The test fails immediately if construction fails.
func InitService(t testing.TB, app *web.App) service.Service[*http.Request, *web.Response] {
	t.Helper()

	return InitServiceWithConfig(t, app, web.AppConfig{})
}

// InitServiceWithConfig is [InitService] with an explicit [web.AppConfig].
func InitServiceWithConfig(t testing.TB, app *web.App, cfg web.AppConfig) service.Service[*http.Request, *web.Response] {
	t.Helper()

	svc, err := app.Finish().NewService(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to initialize service: %s", err)
	}
	return svc
}

// RequestOption customizes a request built by [NewRequest].
type RequestOption func(*http.Request)

// Header sets a request header.
func Header(name, value string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set(name, value)
	}
}

// Body sets the request body.
func Body(s string) RequestOption {
	return func(r *http.Request) {
		r.Body = io.NopCloser(strings.NewReader(s))
		r.ContentLength = int64(len(s))
	}
}

// NewRequest returns a server side [http.Request] for target.
func NewRequest(method, target string, opts ...RequestOption) *http.Request {
	r := httptest.NewRequest(method, target, nil)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Call awaits readiness of svc and invokes it with req.
func Call(ctx context.Context, svc service.Service[*http.Request, *web.Response], req *http.Request) (*web.Response, error) {
	return service.Call(ctx, svc, req)
}

// ReadBody returns the body of resp as a string.
func ReadBody(resp *web.Response) string {
	return string(resp.Body())
}
