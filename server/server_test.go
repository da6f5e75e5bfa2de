// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/z5labs/strata/pkg/noop"
	"github.com/z5labs/strata/service"
	"github.com/z5labs/strata/web"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartWorkers(t *testing.T) {
	t.Run("will construct every worker independently", func(t *testing.T) {
		var built atomic.Int32
		app := web.New(
			web.DataFactory(func(ctx context.Context) (int32, error) {
				return built.Add(1), nil
			}),
			web.HandleRoute("/", web.Get(web.With(web.FromData[int32](), func(ctx context.Context, req *web.Request, n int32) (*web.Response, error) {
				return web.Text(http.StatusOK, strconv.Itoa(int(n))), nil
			}))),
		)

		workers, err := StartWorkers(context.Background(), noop.Logger(), app.Finish(), web.AppConfig{}, 3)
		require.Nil(t, err)
		require.Len(t, workers, 3)
		require.Equal(t, int32(3), built.Load())

		seen := make(map[string]bool)
		for _, w := range workers {
			resp, err := service.Call(context.Background(), w, httptest.NewRequest(http.MethodGet, "/", nil))
			require.Nil(t, err)
			seen[string(resp.Body())] = true
		}
		require.Len(t, seen, 3)
	})

	t.Run("will start a single worker", func(t *testing.T) {
		t.Run("if the worker count is less than one", func(t *testing.T) {
			workers, err := StartWorkers(context.Background(), noop.Logger(), web.New().Finish(), web.AppConfig{}, 0)
			require.Nil(t, err)
			require.Len(t, workers, 1)
		})
	})

	t.Run("will return a WorkerStartError", func(t *testing.T) {
		t.Run("if a worker fails to construct its service", func(t *testing.T) {
			buildErr := errors.New("failed to build")
			f := service.FactoryFunc[web.AppConfig, *http.Request, *web.Response](func(ctx context.Context, cfg web.AppConfig) (Worker, error) {
				return nil, buildErr
			})

			workers, err := StartWorkers(context.Background(), noop.Logger(), f, web.AppConfig{}, 2)
			require.Nil(t, workers)

			var wserr WorkerStartError
			require.ErrorAs(t, err, &wserr)
			require.ErrorIs(t, err, buildErr)
		})
	})
}

type notReady struct {
	err error
}

func (s notReady) Ready(ctx context.Context) error {
	return s.err
}

func (s notReady) Call(ctx context.Context, r *http.Request) (*web.Response, error) {
	return web.NewResponse(http.StatusOK), nil
}

// counter keeps unsynchronized per worker state.
type counter struct {
	inFlight    int
	maxInFlight int
	calls       int
}

func (c *counter) Ready(ctx context.Context) error {
	return nil
}

func (c *counter) Call(ctx context.Context, r *http.Request) (*web.Response, error) {
	c.inFlight++
	if c.inFlight > c.maxInFlight {
		c.maxInFlight = c.inFlight
	}
	time.Sleep(time.Millisecond)
	c.calls++
	c.inFlight--
	return web.NewResponse(http.StatusOK), nil
}

func serve(h http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHandler_ServeHTTP(t *testing.T) {
	t.Run("will never enter a worker concurrently", func(t *testing.T) {
		var c counter
		h := NewHandler([]Worker{&c})
		defer h.Close()

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				serve(h, "/")
			}()
		}
		wg.Wait()

		require.Nil(t, h.Close())
		assert.Equal(t, 1, c.maxInFlight)
		assert.Equal(t, 50, c.calls)
	})

	t.Run("will spread requests across workers", func(t *testing.T) {
		release := make(chan struct{})
		var calls [2]atomic.Int32
		worker := func(i int) Worker {
			return service.Func[*http.Request, *web.Response](func(ctx context.Context, r *http.Request) (*web.Response, error) {
				calls[i].Add(1)
				<-release
				return web.Text(http.StatusOK, strconv.Itoa(i)), nil
			})
		}
		h := NewHandler([]Worker{worker(0), worker(1)})
		defer h.Close()

		codes := make(chan int, 2)
		for i := 0; i < 2; i++ {
			go func() {
				codes <- serve(h, "/").Code
			}()
		}
		require.Eventually(t, func() bool {
			return calls[0].Load() == 1 && calls[1].Load() == 1
		}, time.Second, time.Millisecond)

		close(release)
		assert.Equal(t, http.StatusOK, <-codes)
		assert.Equal(t, http.StatusOK, <-codes)
	})

	t.Run("will answer intercepted paths ahead of the workers", func(t *testing.T) {
		app := web.New(
			web.WithFilter(web.FilterFunc(func(ctx context.Context, req *web.Request) (web.FilterResult, error) {
				return web.Respond(web.NewResponse(http.StatusUnauthorized)), nil
			})),
			web.HandleRoute("/{path}*", web.To(web.HandlerFunc(func(ctx context.Context, req *web.Request) (*web.Response, error) {
				return web.Text(http.StatusTeapot, "catch all"), nil
			}))),
		)
		workers, err := StartWorkers(context.Background(), noop.Logger(), app.Finish(), web.AppConfig{}, 1)
		require.Nil(t, err)

		unhealthy := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		h := NewHandler(workers, Intercept("/health/readiness", unhealthy))
		defer h.Close()

		assert.Equal(t, http.StatusServiceUnavailable, serve(h, "/health/readiness").Code)
		assert.Equal(t, http.StatusUnauthorized, serve(h, "/health/other").Code)
	})

	t.Run("will respond with 503", func(t *testing.T) {
		t.Run("if the worker never becomes ready", func(t *testing.T) {
			h := NewHandler([]Worker{notReady{err: errors.New("overloaded")}})
			defer h.Close()

			assert.Equal(t, http.StatusServiceUnavailable, serve(h, "/").Code)
		})

		t.Run("if the worker panics", func(t *testing.T) {
			h := NewHandler([]Worker{service.Func[*http.Request, *web.Response](func(ctx context.Context, r *http.Request) (*web.Response, error) {
				panic("boom")
			})})
			defer h.Close()

			assert.Equal(t, http.StatusServiceUnavailable, serve(h, "/").Code)
			assert.Equal(t, http.StatusServiceUnavailable, serve(h, "/").Code)
		})

		t.Run("if the handler is closed", func(t *testing.T) {
			h := NewHandler([]Worker{notReady{}})
			require.Nil(t, h.Close())

			assert.Equal(t, http.StatusServiceUnavailable, serve(h, "/").Code)
		})
	})

	t.Run("will panic", func(t *testing.T) {
		t.Run("if no workers are given", func(t *testing.T) {
			require.Panics(t, func() {
				NewHandler(nil)
			})
		})
	})
}

func TestRuntime_Run(t *testing.T) {
	t.Run("will serve requests until the context is cancelled", func(t *testing.T) {
		app := web.New(
			web.HandleRoute("/hello/{name}", web.Get(web.With(web.FromPath("name"), func(ctx context.Context, req *web.Request, name string) (*web.Response, error) {
				return web.Text(http.StatusOK, "hello, "+name), nil
			}))),
		)

		workers, err := StartWorkers(context.Background(), noop.Logger(), app.Finish(), web.AppConfig{}, 2)
		require.Nil(t, err)

		ls, err := net.Listen("tcp", "127.0.0.1:0")
		require.Nil(t, err)

		h := NewHandler(workers)
		defer h.Close()

		rt := NewRuntime(ls, h, ShutdownTimeout(time.Second))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		errCh := make(chan error, 1)
		go func() {
			errCh <- rt.Run(ctx)
		}()

		client := retryablehttp.NewClient()
		client.Logger = nil
		client.RetryMax = 3
		client.RetryWaitMin = 10 * time.Millisecond
		client.RetryWaitMax = 50 * time.Millisecond

		resp, err := client.Get(fmt.Sprintf("http://%s/hello/bob", rt.Addr()))
		require.Nil(t, err)
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		require.Nil(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "hello, bob", string(b))

		resp, err = client.Get(fmt.Sprintf("http://%s/goodbye", rt.Addr()))
		require.Nil(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		cancel()
		select {
		case err := <-errCh:
			require.Nil(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("runtime did not shut down")
		}
	})
}
