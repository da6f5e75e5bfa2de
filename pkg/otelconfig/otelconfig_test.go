// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otelconfig

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromConfig(t *testing.T) {
	t.Run("will return the noop initializer", func(t *testing.T) {
		t.Run("if no exporter is configured", func(t *testing.T) {
			initializer, err := FromConfig(Config{})
			require.Nil(t, err)
			require.Equal(t, Noop, initializer)
		})
	})

	t.Run("will return the local initializer", func(t *testing.T) {
		t.Run("if the stdout exporter is configured", func(t *testing.T) {
			initializer, err := FromConfig(Config{Exporter: ExporterStdout, ServiceName: "test"})
			require.Nil(t, err)
			require.IsType(t, LocalConfig{}, initializer)
			require.Equal(t, "test", initializer.(LocalConfig).ServiceName)
		})
	})

	t.Run("will return the otlp initializer", func(t *testing.T) {
		t.Run("if the otlp exporter is configured", func(t *testing.T) {
			initializer, err := FromConfig(Config{Exporter: ExporterOTLP, Endpoint: "localhost:4317"})
			require.Nil(t, err)
			require.IsType(t, OTLPConfig{}, initializer)
			require.Equal(t, "localhost:4317", initializer.(OTLPConfig).Endpoint)
		})
	})

	t.Run("will return an UnknownExporterError", func(t *testing.T) {
		t.Run("if the exporter is not supported", func(t *testing.T) {
			_, err := FromConfig(Config{Exporter: "zipkin"})

			var uerr UnknownExporterError
			require.ErrorAs(t, err, &uerr)
			require.Equal(t, "zipkin", uerr.Exporter)
		})
	})
}

func TestLocalConfig_Init(t *testing.T) {
	t.Run("will write finished spans", func(t *testing.T) {
		var buf bytes.Buffer
		tp, err := Local(ServiceName("test"), Writer(&buf)).Init(context.Background())
		require.Nil(t, err)

		_, span := tp.Tracer("test").Start(context.Background(), "hello")
		span.End()

		require.Nil(t, tp.Shutdown(context.Background()))
		require.Contains(t, buf.String(), `"Name": "hello"`)
		require.Contains(t, buf.String(), `"service.name"`)
	})
}

func TestOTLPConfig_Init(t *testing.T) {
	t.Run("will not block", func(t *testing.T) {
		t.Run("if the collector is unreachable", func(t *testing.T) {
			tp, err := OTLP(Endpoint("127.0.0.1:1")).Init(context.Background())
			require.Nil(t, err)

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			tp.Shutdown(ctx)
		})
	})
}
