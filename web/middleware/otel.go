// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package middleware

import (
	"context"
	"time"

	"github.com/z5labs/strata/web"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/z5labs/strata/web/middleware"

type otelOptions struct {
	tp         trace.TracerProvider
	mp         metric.MeterProvider
	propagator propagation.TextMapPropagator
}

// OTelOption configures [Trace] and [Metrics].
type OTelOption func(*otelOptions)

// TracerProvider overrides the globally registered [trace.TracerProvider].
func TracerProvider(tp trace.TracerProvider) OTelOption {
	return func(o *otelOptions) {
		o.tp = tp
	}
}

// MeterProvider overrides the globally registered [metric.MeterProvider].
func MeterProvider(mp metric.MeterProvider) OTelOption {
	return func(o *otelOptions) {
		o.mp = mp
	}
}

// Propagator overrides the globally registered [propagation.TextMapPropagator].
func Propagator(p propagation.TextMapPropagator) OTelOption {
	return func(o *otelOptions) {
		o.propagator = p
	}
}

func newOTelOptions(opts []OTelOption) *otelOptions {
	o := &otelOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.tp == nil {
		o.tp = otel.GetTracerProvider()
	}
	if o.mp == nil {
		o.mp = otel.GetMeterProvider()
	}
	if o.propagator == nil {
		o.propagator = otel.GetTextMapPropagator()
	}
	return o
}

// Trace starts a span for every request. When the context already
// carries a local span, such as the one started by otelhttp, the new span
// is an internal child of it. Otherwise the parent is extracted from the
// request headers and the span is a server span.
func Trace(opts ...OTelOption) Transform {
	o := newOTelOptions(opts)
	tracer := o.tp.Tracer(instrumentationName)

	return transform(func(next handler) handler {
		return &tracing{
			next:       next,
			tracer:     tracer,
			propagator: o.propagator,
		}
	})
}

type tracing struct {
	next       handler
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

func (s *tracing) Ready(ctx context.Context) error {
	return s.next.Ready(ctx)
}

func (s *tracing) Call(ctx context.Context, req *web.Request) (*web.Response, error) {
	kind := trace.SpanKindInternal
	if parent := trace.SpanContextFromContext(ctx); !parent.IsValid() || parent.IsRemote() {
		kind = trace.SpanKindServer
		ctx = s.propagator.Extract(ctx, propagation.HeaderCarrier(req.Header()))
	}
	spanCtx, span := s.tracer.Start(
		ctx,
		req.Method(),
		trace.WithSpanKind(kind),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method()),
			attribute.String("url.path", req.Path()),
		),
	)
	defer span.End()

	resp, err := s.next.Call(spanCtx, req.WithHTTP(req.HTTP().WithContext(spanCtx)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if resp != nil {
		span.SetAttributes(attribute.Int("http.response.status_code", resp.Status()))
		if resp.Status() >= 500 {
			span.SetStatus(codes.Error, "")
		}
	}
	return resp, nil
}

// Metrics records a request counter and a request duration histogram,
// attributed by method and status code. It fails if the instruments
// cannot be created.
func Metrics(opts ...OTelOption) (Transform, error) {
	o := newOTelOptions(opts)
	meter := o.mp.Meter(instrumentationName)

	requests, err := meter.Int64Counter(
		"http.server.requests",
		metric.WithDescription("Number of handled requests."),
	)
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("Duration of handled requests."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return transform(func(next handler) handler {
		return &metrics{
			next:     next,
			requests: requests,
			duration: duration,
		}
	}), nil
}

type metrics struct {
	next     handler
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

func (s *metrics) Ready(ctx context.Context) error {
	return s.next.Ready(ctx)
}

func (s *metrics) Call(ctx context.Context, req *web.Request) (*web.Response, error) {
	start := time.Now()
	resp, err := s.next.Call(ctx, req)

	attrs := []attribute.KeyValue{
		attribute.String("http.request.method", req.Method()),
	}
	switch {
	case err != nil:
		attrs = append(attrs, attribute.Bool("error", true))
	case resp != nil:
		attrs = append(attrs, attribute.Int("http.response.status_code", resp.Status()))
	}
	set := metric.WithAttributes(attrs...)
	s.requests.Add(ctx, 1, set)
	s.duration.Record(ctx, time.Since(start).Seconds(), set)
	return resp, err
}
