// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/z5labs/strata/pkg/slogfield"
	"github.com/z5labs/strata/web"
)

// Logger logs every request once its response, or error, is available.
func Logger(log *slog.Logger) Transform {
	return transform(func(next handler) handler {
		return &logger{
			next: next,
			log:  log,
		}
	})
}

type logger struct {
	next handler
	log  *slog.Logger
}

func (s *logger) Ready(ctx context.Context) error {
	return s.next.Ready(ctx)
}

func (s *logger) Call(ctx context.Context, req *web.Request) (*web.Response, error) {
	start := time.Now()
	resp, err := s.next.Call(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		s.log.ErrorContext(
			ctx,
			"failed to handle request",
			slogfield.Request(req.HTTP()),
			slogfield.Duration("elapsed", elapsed),
			slogfield.Error(err),
		)
		return nil, err
	}

	status := 0
	if resp != nil {
		status = resp.Status()
	}
	s.log.InfoContext(
		ctx,
		"handled request",
		slogfield.Request(req.HTTP()),
		slogfield.Status(status),
		slogfield.Duration("elapsed", elapsed),
	)
	return resp, nil
}
