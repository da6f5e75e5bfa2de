// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package middleware

import (
	"context"

	"github.com/z5labs/strata/internal/try"
	"github.com/z5labs/strata/web"
)

// Recover converts panics raised while handling a request into errors,
// which are then rendered like any other unhandled error.
func Recover() Transform {
	return transform(func(next handler) handler {
		return &recoverer{next: next}
	})
}

type recoverer struct {
	next handler
}

func (s *recoverer) Ready(ctx context.Context) error {
	return s.next.Ready(ctx)
}

func (s *recoverer) Call(ctx context.Context, req *web.Request) (*web.Response, error) {
	return try.Call(func() (*web.Response, error) {
		return s.next.Call(ctx, req)
	})
}
