// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package middleware

import (
	"context"
	"net/http"

	"github.com/z5labs/strata/web"
)

// DefaultHeaders sets every header in h which the response does not already have.
func DefaultHeaders(h http.Header) Transform {
	return transform(func(next handler) handler {
		return &defaultHeaders{
			next:    next,
			headers: h.Clone(),
		}
	})
}

type defaultHeaders struct {
	next    handler
	headers http.Header
}

func (s *defaultHeaders) Ready(ctx context.Context) error {
	return s.next.Ready(ctx)
}

func (s *defaultHeaders) Call(ctx context.Context, req *web.Request) (*web.Response, error) {
	resp, err := s.next.Call(ctx, req)
	if err != nil || resp == nil {
		return resp, err
	}

	rh := resp.Header()
	for k, vs := range s.headers {
		if _, ok := rh[k]; ok {
			continue
		}
		rh[k] = append([]string(nil), vs...)
	}
	return resp, nil
}
