// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package slogfield provides the structured log attributes used across strata.
package slogfield

import (
	"log/slog"
	"net/http"
	"reflect"
	"time"
)

// Any returns an slog.Attr for the supplied value.
func Any(key string, value any) slog.Attr {
	return slog.Any(key, value)
}

// Bool returns an slog.Attr for a bool.
func Bool(key string, value bool) slog.Attr {
	return slog.Bool(key, value)
}

// Duration returns an slog.Attr for a time.Duration.
func Duration(key string, d time.Duration) slog.Attr {
	return slog.Duration(key, d)
}

// Error returns an slog.Attr for a error.
func Error(err error) slog.Attr {
	return slog.Any("error", err)
}

// String returns an slog.Attr for a string.
func String(key, value string) slog.Attr {
	return slog.String(key, value)
}

// Strings returns an slog.Attr for a slice of strings.
func Strings(key string, values []string) slog.Attr {
	return slog.Any(key, values)
}

// Int returns an slog.Attr for a int.
func Int(key string, n int) slog.Attr {
	return slog.Int(key, n)
}

// Int64 returns an slog.Attr for a int64.
func Int64(key string, n int64) slog.Attr {
	return slog.Int64(key, n)
}

// Uint32 returns an slog.Attr for a uint32.
func Uint32(key string, n uint32) slog.Attr {
	return slog.Uint64(key, uint64(n))
}

// Type returns an slog.Attr holding the name of the given type.
func Type(key string, t reflect.Type) slog.Attr {
	if t == nil {
		return slog.String(key, "<nil>")
	}
	return slog.String(key, t.String())
}

// Request groups the method and path of an HTTP request.
func Request(r *http.Request) slog.Attr {
	return slog.Group(
		"http",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
}

// Status returns an slog.Attr for an HTTP response status code.
func Status(code int) slog.Attr {
	return slog.Int("http.status_code", code)
}

// Worker returns an slog.Attr identifying a worker by index.
func Worker(id int) slog.Attr {
	return slog.Int("worker", id)
}
