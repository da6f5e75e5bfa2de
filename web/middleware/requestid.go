// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package middleware

import (
	"context"

	"github.com/z5labs/strata/web"

	"github.com/google/uuid"
)

// RequestIDHeader is the header a request id is read from and written to.
const RequestIDHeader = "X-Request-Id"

type requestIDKey struct{}

// RequestIDFromContext returns the request id attached by [RequestID].
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok
}

// RequestID propagates the request id sent by the client or generates a
// new one. The id is available from the request context and is echoed
// back in the response headers.
func RequestID() Transform {
	return transform(func(next handler) handler {
		return &requestID{next: next}
	})
}

type requestID struct {
	next handler
}

func (s *requestID) Ready(ctx context.Context) error {
	return s.next.Ready(ctx)
}

func (s *requestID) Call(ctx context.Context, req *web.Request) (*web.Response, error) {
	id := req.Header().Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}

	ctx = context.WithValue(ctx, requestIDKey{}, id)
	hr := req.HTTP().WithContext(ctx)
	hr.Header = hr.Header.Clone()
	hr.Header.Set(RequestIDHeader, id)

	resp, err := s.next.Call(ctx, req.WithHTTP(hr))
	if resp != nil {
		resp.Header().Set(RequestIDHeader, id)
	}
	return resp, err
}
