// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/z5labs/strata/internal/try"
	"github.com/z5labs/strata/pkg/noop"
	"github.com/z5labs/strata/pkg/slogfield"
	"github.com/z5labs/strata/service"
	"github.com/z5labs/strata/web"
)

// Handler is an [http.Handler] which hands requests to a pool of workers.
//
// Each worker is driven by a single goroutine, so a worker's service
// graph is never entered by more than one request at a time. Requests
// are picked up by whichever worker is idle first.
//
// Paths registered with [Intercept] are answered by the [Handler] itself,
// ahead of any worker.
type Handler struct {
	jobs   chan job
	quit   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
	direct map[string]http.Handler
	log    *slog.Logger
}

type job struct {
	ctx  context.Context
	r    *http.Request
	done chan<- result
}

type result struct {
	resp *web.Response
	err  error
}

// HandlerOption configures a [Handler].
type HandlerOption func(*Handler)

// HandlerLogger sets the logger used to report failed requests.
func HandlerLogger(log *slog.Logger) HandlerOption {
	return func(h *Handler) {
		h.log = log
	}
}

// Intercept serves requests for the exact path with dh instead of a
// worker, bypassing the application's filters and routes.
func Intercept(path string, dh http.Handler) HandlerOption {
	return func(h *Handler) {
		h.direct[path] = dh
	}
}

// NewHandler starts one goroutine per worker and returns a [Handler]
// feeding them. It panics if no workers are given. The goroutines run
// until [Handler.Close] is called.
func NewHandler(workers []Worker, opts ...HandlerOption) *Handler {
	if len(workers) == 0 {
		panic("server: at least one worker is required")
	}

	h := &Handler{
		jobs:   make(chan job),
		quit:   make(chan struct{}),
		direct: make(map[string]http.Handler),
		log:    noop.Logger(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.wg.Add(len(workers))
	for i, w := range workers {
		go h.work(i, w)
	}
	return h
}

// Close stops every worker goroutine and waits for them to return.
// Requests still waiting for a worker are answered with 503.
func (h *Handler) Close() error {
	h.once.Do(func() {
		close(h.quit)
	})
	h.wg.Wait()
	return nil
}

func (h *Handler) work(i int, w Worker) {
	defer h.wg.Done()

	for {
		select {
		case <-h.quit:
			return
		case j := <-h.jobs:
			resp, err := dispatch(j.ctx, w, j.r)
			if err != nil {
				h.log.WarnContext(j.ctx, "worker failed to handle request", slogfield.Worker(i), slogfield.Request(j.r), slogfield.Error(err))
			}
			j.done <- result{resp: resp, err: err}
		}
	}
}

func dispatch(ctx context.Context, w Worker, r *http.Request) (*web.Response, error) {
	err := ctx.Err()
	if err != nil {
		return nil, err
	}
	return try.Call(func() (*web.Response, error) {
		return service.Call(ctx, w, r)
	})
}

// ServeHTTP implements the [http.Handler] interface. The request context
// bounds both the wait for an idle worker and the call, so a client going
// away cancels the in flight request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if dh, ok := h.direct[r.URL.Path]; ok {
		dh.ServeHTTP(w, r)
		return
	}

	ctx := r.Context()
	done := make(chan result, 1)
	select {
	case <-ctx.Done():
		return
	case <-h.quit:
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	case h.jobs <- job{ctx: ctx, r: r, done: done}:
	}

	var res result
	select {
	case <-ctx.Done():
		return
	case res = <-done:
	}
	if res.err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	err := res.resp.WriteTo(w)
	if err != nil {
		h.log.WarnContext(ctx, "failed to write response", slogfield.Request(r), slogfield.Error(err))
	}
}
