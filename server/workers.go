// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package server drives web applications over net/http.
//
// Every worker owns an independent service graph built from the same
// frozen application factory. Each worker handles one request at a time
// on its own goroutine, and each request awaits readiness of its worker
// before it is dispatched.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/z5labs/strata/pkg/slogfield"
	"github.com/z5labs/strata/service"
	"github.com/z5labs/strata/web"

	"golang.org/x/sync/errgroup"
)

// Worker is a single, independently constructed application service.
type Worker = service.Service[*http.Request, *web.Response]

// Factory constructs [Worker]s.
type Factory = service.Factory[web.AppConfig, *http.Request, *web.Response]

// WorkerStartError is returned when a worker fails to construct its service graph.
type WorkerStartError struct {
	Worker int
	Cause  error
}

// Error implements the [builtin.error] interface.
func (e WorkerStartError) Error() string {
	return fmt.Sprintf("failed to start worker %d: %s", e.Worker, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e WorkerStartError) Unwrap() error {
	return e.Cause
}

// StartWorkers constructs n workers concurrently. If any worker fails
// to start the first failure is returned and no workers are.
func StartWorkers(ctx context.Context, log *slog.Logger, f Factory, cfg web.AppConfig, n int) ([]Worker, error) {
	if n < 1 {
		n = 1
	}

	workers := make([]Worker, n)
	g, gctx := errgroup.WithContext(ctx)
	for i := range workers {
		i := i
		g.Go(func() error {
			w, err := f.NewService(gctx, cfg)
			if err != nil {
				log.ErrorContext(gctx, "failed to start worker", slogfield.Worker(i), slogfield.Error(err))
				return WorkerStartError{Worker: i, Cause: err}
			}
			workers[i] = w
			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, err
	}
	log.InfoContext(ctx, "started workers", slogfield.Int("count", n))
	return workers, nil
}
