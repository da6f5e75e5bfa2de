// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otelconfig initializes OpenTelemetry tracer providers from config.
package otelconfig

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Exporter names accepted by [Config].
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// Config selects and configures a span exporter.
type Config struct {
	Exporter    string `config:"exporter"`
	Endpoint    string `config:"endpoint"`
	ServiceName string `config:"service_name"`
}

// UnknownExporterError is returned for an unsupported [Config.Exporter].
type UnknownExporterError struct {
	Exporter string
}

// Error implements the [builtin.error] interface.
func (e UnknownExporterError) Error() string {
	return fmt.Sprintf("unknown otel exporter: %s", e.Exporter)
}

// TracerProvider is a [trace.TracerProvider] which must be shut down
// to flush any buffered spans.
type TracerProvider interface {
	trace.TracerProvider

	Shutdown(context.Context) error
}

// Initializer constructs a [TracerProvider].
type Initializer interface {
	Init(context.Context) (TracerProvider, error)
}

// FromConfig returns the [Initializer] selected by cfg.
func FromConfig(cfg Config) (Initializer, error) {
	common := ServiceName(cfg.ServiceName)
	switch cfg.Exporter {
	case "", ExporterNone:
		return Noop, nil
	case ExporterStdout:
		return Local(common), nil
	case ExporterOTLP:
		return OTLP(common, Endpoint(cfg.Endpoint)), nil
	default:
		return nil, UnknownExporterError{Exporter: cfg.Exporter}
	}
}

// Propagator is the composite W3C trace context and baggage propagator.
func Propagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
}

// Common holds settings shared by every exporter.
type Common struct {
	ServiceName string
}

// CommonOption
type CommonOption interface {
	LocalOption
	OTLPOption
}

type commonOptionFunc func(*Common)

func (f commonOptionFunc) ApplyOTLP(cfg *OTLPConfig) {
	f(&cfg.Common)
}

func (f commonOptionFunc) ApplyLocal(cfg *LocalConfig) {
	f(&cfg.Common)
}

// ServiceName sets the service.name resource attribute.
func ServiceName(name string) CommonOption {
	return commonOptionFunc(func(c *Common) {
		c.ServiceName = name
	})
}

func (c Common) resource() *resource.Resource {
	if c.ServiceName == "" {
		return resource.Default()
	}
	return resource.NewSchemaless(semconv.ServiceName(c.ServiceName))
}

// Noop initializes a provider which records nothing.
var Noop Initializer = noopInitializer{}

type noopInitializer struct{}

type noopProvider struct {
	noop.TracerProvider
}

func (noopProvider) Shutdown(context.Context) error {
	return nil
}

func (noopInitializer) Init(context.Context) (TracerProvider, error) {
	return noopProvider{TracerProvider: noop.NewTracerProvider()}, nil
}

// LocalConfig
type LocalConfig struct {
	Common

	Out io.Writer
}

// LocalOption
type LocalOption interface {
	ApplyLocal(*LocalConfig)
}

type localOptionFunc func(*LocalConfig)

func (f localOptionFunc) ApplyLocal(cfg *LocalConfig) {
	f(cfg)
}

// Writer sets where the local exporter writes spans to. The default is stdout.
func Writer(w io.Writer) LocalOption {
	return localOptionFunc(func(lc *LocalConfig) {
		lc.Out = w
	})
}

// Local returns an Initializer which pretty prints spans.
func Local(opts ...LocalOption) Initializer {
	cfg := LocalConfig{
		Out: os.Stdout,
	}
	for _, opt := range opts {
		opt.ApplyLocal(&cfg)
	}
	return cfg
}

// Init implements the Initializer interface.
func (cfg LocalConfig) Init(ctx context.Context) (TracerProvider, error) {
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(cfg.Out),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(cfg.resource()),
	)
	return tp, nil
}
