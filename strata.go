// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package strata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/z5labs/strata/config"
	"github.com/z5labs/strata/internal/try"
	"github.com/z5labs/strata/pkg/health"
	"github.com/z5labs/strata/pkg/maskslog"
	"github.com/z5labs/strata/pkg/otelconfig"
	"github.com/z5labs/strata/pkg/otelslog"
	"github.com/z5labs/strata/pkg/slogfield"
	"github.com/z5labs/strata/server"
	"github.com/z5labs/strata/web"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
)

// Builder constructs the application from its config.
type Builder[T any] interface {
	Build(ctx context.Context, cfg T) (*web.App, error)
}

// BuilderFunc is a functional implementation of
// the [Builder] interface.
type BuilderFunc[T any] func(context.Context, T) (*web.App, error)

// Build implements the [Builder] interface.
func (f BuilderFunc[T]) Build(ctx context.Context, cfg T) (*web.App, error) {
	return f(ctx, cfg)
}

type environment struct {
	listen  func(network, addr string) (net.Listener, error)
	logOut  io.Writer
	signals []os.Signal
	onServe func(net.Addr)
}

func defaultEnvironment() environment {
	return environment{
		listen:  net.Listen,
		logOut:  os.Stderr,
		signals: []os.Signal{os.Interrupt, syscall.SIGTERM},
		onServe: func(net.Addr) {},
	}
}

// Run executes the application. It reads the config sources, unmarshals
// them into T, initializes tracing, builds the application and serves it
// with one worker per configured CPU until ctx is cancelled or an
// interrupt is received.
func Run[T Configurable](ctx context.Context, builder Builder[T], srcs ...config.Source) error {
	return run(ctx, defaultEnvironment(), builder, srcs...)
}

func run[T Configurable](ctx context.Context, env environment, builder Builder[T], srcs ...config.Source) (err error) {
	defer try.Recover(&err)

	ctx, cancel := signal.NotifyContext(ctx, env.signals...)
	defer cancel()

	m, err := config.Read(srcs...)
	if err != nil {
		return ConfigReadError{Cause: err}
	}

	var cfg T
	err = m.Unmarshal(&cfg)
	if err != nil {
		return ConfigUnmarshalError{Cause: err}
	}
	base := cfg.BaseConfig().withDefaults()

	var logHandler slog.Handler = slog.NewJSONHandler(env.logOut, &slog.HandlerOptions{
		AddSource: true,
		Level:     base.Logging.Level,
	})
	if len(base.Logging.Mask) > 0 {
		logHandler = maskslog.NewHandler(logHandler, maskslog.Keys(base.Logging.Mask...))
	}
	log := otelslog.New(logHandler)

	shutdown, err := initOTel(ctx, base.OTel)
	if err != nil {
		return OTelInitError{Cause: err}
	}
	defer func() {
		serr := shutdown(context.WithoutCancel(ctx))
		if serr != nil {
			log.WarnContext(ctx, "failed to shutdown tracer provider", slogfield.Error(serr))
		}
	}()

	app, err := builder.Build(ctx, cfg)
	if err != nil {
		return AppBuildError{Cause: err}
	}
	if app == nil {
		return AppBuildError{Cause: ErrNilApp}
	}
	app = app.With(web.LogHandler(logHandler))

	ls, err := env.listen("tcp", base.HTTP.Addr)
	if err != nil {
		return AppRunError{Cause: err}
	}
	if base.App.LocalAddr == "" {
		base.App.LocalAddr = ls.Addr().String()
	}

	workers, err := server.StartWorkers(ctx, log, app.Finish(), base.App, base.HTTP.Workers)
	if err != nil {
		ls.Close()
		return AppBuildError{Cause: err}
	}

	var readiness health.Binary
	hopts := []server.HandlerOption{server.HandlerLogger(log)}
	if !base.Health.Disabled {
		hopts = append(
			hopts,
			server.Intercept(base.Health.LivenessPath, health.Handler(health.MetricFunc(func(context.Context) bool {
				return true
			}))),
			server.Intercept(base.Health.ReadinessPath, health.Handler(&readiness)),
		)
	}
	h := server.NewHandler(workers, hopts...)
	defer h.Close()

	rt := server.NewRuntime(
		ls,
		h,
		server.ReadTimeout(base.HTTP.ReadTimeout),
		server.ReadHeaderTimeout(base.HTTP.ReadHeaderTimeout),
		server.WriteTimeout(base.HTTP.WriteTimeout),
		server.IdleTimeout(base.HTTP.IdleTimeout),
		server.ShutdownTimeout(base.HTTP.ShutdownTimeout),
		server.OTelOptions(
			otelhttp.WithTracerProvider(otel.GetTracerProvider()),
			otelhttp.WithPropagators(otel.GetTextMapPropagator()),
		),
	)

	log.InfoContext(ctx, "serving http", slogfield.String("addr", rt.Addr().String()))
	env.onServe(rt.Addr())
	go func() {
		<-ctx.Done()
		readiness.MarkUnhealthy()
	}()

	err = rt.Run(ctx)
	if err != nil {
		return AppRunError{Cause: err}
	}
	log.InfoContext(ctx, "stopped serving http")
	return nil
}

func initOTel(ctx context.Context, cfg otelconfig.Config) (func(context.Context) error, error) {
	initializer, err := otelconfig.FromConfig(cfg)
	if err != nil {
		return nil, err
	}

	tp, err := initializer.Init(ctx)
	if err != nil {
		return nil, err
	}

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(otelconfig.Propagator())
	return tp.Shutdown, nil
}

// ErrNilApp is returned when a [Builder] returns neither an app nor an error.
var ErrNilApp = errors.New("builder returned a nil app")

// ConfigReadError
type ConfigReadError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ConfigReadError) Error() string {
	return fmt.Sprintf("failed to read config source(s): %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ConfigReadError) Unwrap() error {
	return e.Cause
}

// ConfigUnmarshalError
type ConfigUnmarshalError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ConfigUnmarshalError) Error() string {
	return fmt.Sprintf("failed to unmarshal read config source(s) into custom type: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ConfigUnmarshalError) Unwrap() error {
	return e.Cause
}

// OTelInitError
type OTelInitError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e OTelInitError) Error() string {
	return fmt.Sprintf("failed to initialize otel: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e OTelInitError) Unwrap() error {
	return e.Cause
}

// AppBuildError
type AppBuildError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e AppBuildError) Error() string {
	return fmt.Sprintf("failed to build app: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e AppBuildError) Unwrap() error {
	return e.Cause
}

// AppRunError
type AppRunError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e AppRunError) Error() string {
	return fmt.Sprintf("failed to run app: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e AppRunError) Unwrap() error {
	return e.Cause
}
