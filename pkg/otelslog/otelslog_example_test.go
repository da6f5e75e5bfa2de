// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otelslog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

func ExampleHandler_Handle() {
	var buf bytes.Buffer
	logger := New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{}))

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	logger.InfoContext(ctx, "hello world")

	var record struct {
		Message string `json:"msg"`
		OTel    struct {
			TraceID string `json:"trace_id"`
			SpanID  string `json:"span_id"`
		} `json:"otel"`
	}
	err := json.Unmarshal(buf.Bytes(), &record)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(record.Message)
	fmt.Println(record.OTel.TraceID)
	fmt.Print(record.OTel.SpanID)
	// Output: hello world
	// 4bf92f3577b34da6a3ce929d0e0e4736
	// 00f067aa0ba902b7
}

func ExampleHandler_WithGroup() {
	var buf bytes.Buffer
	logger := New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{})).WithGroup("request")
	logger.Info("handled", slog.Int("status", 200))

	var record struct {
		Request struct {
			Status int `json:"status"`
		} `json:"request"`
	}
	err := json.Unmarshal(buf.Bytes(), &record)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Print(record.Request.Status)
	// Output: 200
}
