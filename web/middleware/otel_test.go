// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package middleware_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/z5labs/strata/web"
	"github.com/z5labs/strata/web/middleware"
	"github.com/z5labs/strata/web/webtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestTrace(t *testing.T) {
	t.Run("will continue the trace sent by the client", func(t *testing.T) {
		recorder := tracetest.NewSpanRecorder()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

		var handlerSpan trace.SpanContext
		resp := get(t, web.New(
			web.Wrap(middleware.Trace(
				middleware.TracerProvider(tp),
				middleware.Propagator(propagation.TraceContext{}),
			)),
			web.HandleRoute("/", web.To(web.HandlerFunc(func(ctx context.Context, req *web.Request) (*web.Response, error) {
				handlerSpan = trace.SpanContextFromContext(req.HTTP().Context())
				return web.NewResponse(http.StatusOK), nil
			}))),
		), webtest.Header("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"))
		require.Equal(t, http.StatusOK, resp.Status())

		spans := recorder.Ended()
		require.Len(t, spans, 1)

		span := spans[0]
		assert.Equal(t, trace.SpanKindServer, span.SpanKind())
		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", span.SpanContext().TraceID().String())
		assert.Equal(t, "00f067aa0ba902b7", span.Parent().SpanID().String())
		assert.Equal(t, span.SpanContext().SpanID(), handlerSpan.SpanID())
	})

	t.Run("will start an internal span", func(t *testing.T) {
		t.Run("if a local span is already active", func(t *testing.T) {
			recorder := tracetest.NewSpanRecorder()
			tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

			svc := webtest.InitService(t, web.New(
				web.Wrap(middleware.Trace(
					middleware.TracerProvider(tp),
					middleware.Propagator(propagation.TraceContext{}),
				)),
				web.HandleRoute("/", web.To(status(http.StatusOK))),
			))

			ctx, parent := tp.Tracer("test").Start(context.Background(), "server", trace.WithSpanKind(trace.SpanKindServer))
			resp, err := webtest.Call(ctx, svc, webtest.NewRequest(
				http.MethodGet,
				"/",
				webtest.Header("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"),
			))
			parent.End()
			require.Nil(t, err)
			require.Equal(t, http.StatusOK, resp.Status())

			spans := recorder.Ended()
			require.Len(t, spans, 2)

			span := spans[0]
			assert.Equal(t, trace.SpanKindInternal, span.SpanKind())
			assert.Equal(t, parent.SpanContext().TraceID(), span.SpanContext().TraceID())
			assert.Equal(t, parent.SpanContext().SpanID(), span.Parent().SpanID())
		})
	})
}

func TestMetrics(t *testing.T) {
	t.Run("will count every request", func(t *testing.T) {
		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

		m, err := middleware.Metrics(middleware.MeterProvider(mp))
		require.Nil(t, err)

		svc := webtest.InitService(t, web.New(
			web.Wrap(m),
			web.HandleRoute("/", web.To(status(http.StatusOK))),
		))
		for i := 0; i < 2; i++ {
			_, err := webtest.Call(context.Background(), svc, webtest.NewRequest(http.MethodGet, "/"))
			require.Nil(t, err)
		}

		var rm metricdata.ResourceMetrics
		err = reader.Collect(context.Background(), &rm)
		require.Nil(t, err)
		require.Len(t, rm.ScopeMetrics, 1)

		var total int64
		var histogramCount uint64
		for _, metric := range rm.ScopeMetrics[0].Metrics {
			switch data := metric.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					total += dp.Value
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					histogramCount += dp.Count
				}
			}
		}
		assert.Equal(t, int64(2), total)
		assert.Equal(t, uint64(2), histogramCount)
	})

	t.Run("will not attribute requests by path", func(t *testing.T) {
		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

		m, err := middleware.Metrics(middleware.MeterProvider(mp))
		require.Nil(t, err)

		svc := webtest.InitService(t, web.New(
			web.Wrap(m),
			web.HandleRoute("/{msg}", web.To(status(http.StatusOK))),
		))
		for _, path := range []string{"/a", "/b", "/c"} {
			_, err := webtest.Call(context.Background(), svc, webtest.NewRequest(http.MethodGet, path))
			require.Nil(t, err)
		}

		var rm metricdata.ResourceMetrics
		err = reader.Collect(context.Background(), &rm)
		require.Nil(t, err)
		require.Len(t, rm.ScopeMetrics, 1)

		for _, metric := range rm.ScopeMetrics[0].Metrics {
			sum, ok := metric.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			require.Len(t, sum.DataPoints, 1)

			dp := sum.DataPoints[0]
			assert.Equal(t, int64(3), dp.Value)
			_, hasPath := dp.Attributes.Value("url.path")
			assert.False(t, hasPath)
		}
	})
}
