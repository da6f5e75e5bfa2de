// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/z5labs/strata/internal/fixedpool"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type runtimeOptions struct {
	readTimeout       time.Duration
	readHeaderTimeout time.Duration
	writeTimeout      time.Duration
	idleTimeout       time.Duration
	shutdownTimeout   time.Duration
	maxHeaderBytes    int
	otelOpts          []otelhttp.Option
}

// RuntimeOption configures a [Runtime].
type RuntimeOption func(*runtimeOptions)

// ReadTimeout sets the maximum duration for reading the entire request,
// including the body. The default is 5 seconds.
func ReadTimeout(d time.Duration) RuntimeOption {
	return func(o *runtimeOptions) {
		if d > 0 {
			o.readTimeout = d
		}
	}
}

// ReadHeaderTimeout sets the maximum duration for reading request headers.
// The default is 2 seconds.
func ReadHeaderTimeout(d time.Duration) RuntimeOption {
	return func(o *runtimeOptions) {
		if d > 0 {
			o.readHeaderTimeout = d
		}
	}
}

// WriteTimeout sets the maximum duration before timing out writes of the
// response. The default is 10 seconds.
func WriteTimeout(d time.Duration) RuntimeOption {
	return func(o *runtimeOptions) {
		if d > 0 {
			o.writeTimeout = d
		}
	}
}

// IdleTimeout sets the maximum duration to wait for the next request when
// keep-alives are enabled. The default is 120 seconds.
func IdleTimeout(d time.Duration) RuntimeOption {
	return func(o *runtimeOptions) {
		if d > 0 {
			o.idleTimeout = d
		}
	}
}

// ShutdownTimeout bounds how long in flight requests are waited on once the
// runtime is asked to stop. The default is 30 seconds.
func ShutdownTimeout(d time.Duration) RuntimeOption {
	return func(o *runtimeOptions) {
		if d > 0 {
			o.shutdownTimeout = d
		}
	}
}

// MaxHeaderBytes sets the maximum number of bytes the server will read
// parsing the request header. The default is 1 MB.
func MaxHeaderBytes(n int) RuntimeOption {
	return func(o *runtimeOptions) {
		if n > 0 {
			o.maxHeaderBytes = n
		}
	}
}

// OTelOptions are passed on to the otelhttp handler every request goes through.
func OTelOptions(opts ...otelhttp.Option) RuntimeOption {
	return func(o *runtimeOptions) {
		o.otelOpts = append(o.otelOpts, opts...)
	}
}

// Non-positive values passed to the options above keep their defaults.

// Runtime serves HTTP on a listener until its context is cancelled.
type Runtime struct {
	ls              net.Listener
	srv             *http.Server
	shutdownTimeout time.Duration
}

// NewRuntime returns a [Runtime] serving h on ls. Every request is
// instrumented with otelhttp before it reaches h.
func NewRuntime(ls net.Listener, h http.Handler, opts ...RuntimeOption) *Runtime {
	o := &runtimeOptions{
		readTimeout:       5 * time.Second,
		readHeaderTimeout: 2 * time.Second,
		writeTimeout:      10 * time.Second,
		idleTimeout:       120 * time.Second,
		shutdownTimeout:   30 * time.Second,
		maxHeaderBytes:    1 << 20,
	}
	for _, opt := range opts {
		opt(o)
	}

	return &Runtime{
		ls: ls,
		srv: &http.Server{
			Handler:           otelhttp.NewHandler(h, "server", o.otelOpts...),
			ReadTimeout:       o.readTimeout,
			ReadHeaderTimeout: o.readHeaderTimeout,
			WriteTimeout:      o.writeTimeout,
			IdleTimeout:       o.idleTimeout,
			MaxHeaderBytes:    o.maxHeaderBytes,
		},
		shutdownTimeout: o.shutdownTimeout,
	}
}

// Addr returns the address the runtime listens on.
func (r *Runtime) Addr() net.Addr {
	return r.ls.Addr()
}

// Run serves until ctx is cancelled and then gracefully shuts down.
// It returns nil if the server shut down cleanly.
func (r *Runtime) Run(ctx context.Context) error {
	err := fixedpool.Wait(
		ctx,
		func(ctx context.Context) error {
			return r.srv.Serve(r.ls)
		},
		func(ctx context.Context) error {
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.shutdownTimeout)
			defer cancel()

			return r.srv.Shutdown(shutdownCtx)
		},
	)

	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
