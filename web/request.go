// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/z5labs/strata/pkg/typemap"
	"github.com/z5labs/strata/router"
)

// AppConfig is threaded from the transport layer to every handler factory
// when a worker constructs its service graph.
type AppConfig struct {
	// Secure reports whether the server terminates TLS.
	Secure bool `config:"secure"`

	// Host is the host name the server is reachable at.
	Host string `config:"host"`

	// LocalAddr is the address the server listens on.
	LocalAddr string `config:"local_addr"`

	// Development includes error details in rendered error responses.
	Development bool `config:"development"`
}

// appState is constructed once per worker and shared by every
// request that worker handles.
type appState struct {
	config     AppConfig
	data       *typemap.Map
	extensions *typemap.Map
	resources  *router.ResourceMap
	renderer   ErrorRenderer
	log        *slog.Logger
}

// Request is an inbound HTTP request along with the state of the
// application handling it.
type Request struct {
	http    *http.Request
	state   *appState
	path    router.Path
	pattern string
}

func newRequest(r *http.Request, state *appState) *Request {
	return &Request{
		http:  r,
		state: state,
	}
}

// HTTP returns the underlying [http.Request].
func (r *Request) HTTP() *http.Request {
	return r.http
}

// WithHTTP returns a shallow copy of r with its underlying [http.Request] replaced.
func (r *Request) WithHTTP(hr *http.Request) *Request {
	c := *r
	c.http = hr
	return &c
}

// Method returns the HTTP method of the request.
func (r *Request) Method() string {
	return r.http.Method
}

// Path returns the URL path of the request.
func (r *Request) Path() string {
	return r.http.URL.Path
}

// Header returns the request headers.
func (r *Request) Header() http.Header {
	return r.http.Header
}

// MatchInfo returns the dynamic segments captured by the matched resource.
func (r *Request) MatchInfo() router.Path {
	return r.path
}

// Param returns the value captured for the named dynamic segment.
func (r *Request) Param(name string) (string, bool) {
	return r.path.Get(name)
}

// Pattern returns the pattern of the matched resource. It is empty
// until the request has been routed.
func (r *Request) Pattern() string {
	return r.pattern
}

// AppConfig returns the configuration the application was constructed with.
func (r *Request) AppConfig() AppConfig {
	return r.state.config
}

// Logger returns the application logger.
func (r *Request) Logger() *slog.Logger {
	return r.state.log
}

// URLFor generates a URL for a named resource or external resource.
func (r *Request) URLFor(name string, elems ...string) (string, error) {
	return r.state.resources.URLFor(name, elems...)
}

// RenderError converts err into a response with the application's [ErrorRenderer].
func (r *Request) RenderError(ctx context.Context, err error) *Response {
	return r.state.renderer.RenderError(ctx, r, err)
}

// GetData returns the application data of type T.
func GetData[T any](r *Request) (T, error) {
	v, ok := typemap.Get[T](r.state.data)
	if !ok {
		return v, MissingDataError{Type: typemap.TypeOf[T]()}
	}
	return v, nil
}

// GetExtension returns the extension of type T registered with [AppData].
func GetExtension[T any](r *Request) (T, bool) {
	return typemap.Get[T](r.state.extensions)
}
