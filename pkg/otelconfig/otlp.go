// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otelconfig

import (
	"context"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// OTLPConfig
type OTLPConfig struct {
	Common

	// host:port of the collector
	Endpoint string
}

// OTLPOption
type OTLPOption interface {
	ApplyOTLP(*OTLPConfig)
}

type otlpOptionFunc func(*OTLPConfig)

func (f otlpOptionFunc) ApplyOTLP(cfg *OTLPConfig) {
	f(cfg)
}

// Endpoint sets the collector endpoint. When empty the exporter falls
// back to its own defaults and OTEL_EXPORTER_OTLP_* variables.
func Endpoint(endpoint string) OTLPOption {
	return otlpOptionFunc(func(oc *OTLPConfig) {
		oc.Endpoint = endpoint
	})
}

// OTLP returns an Initializer which exports spans to a collector over gRPC.
func OTLP(opts ...OTLPOption) Initializer {
	c := OTLPConfig{}
	for _, opt := range opts {
		opt.ApplyOTLP(&c)
	}
	return c
}

// Init implements the Initializer interface. The connection to the
// collector is established lazily so Init does not block.
func (cfg OTLPConfig) Init(ctx context.Context) (TracerProvider, error) {
	// Note the use of insecure transport here. TLS is recommended in production.
	exporterOpts := []otlptracegrpc.Option{otlptracegrpc.WithInsecure()}
	if cfg.Endpoint != "" {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithEndpoint(cfg.Endpoint))
	}

	traceExporter, err := otlptracegrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, err
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(cfg.resource()),
		sdktrace.WithSpanProcessor(bsp),
	)
	return tp, nil
}
