// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package strata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/z5labs/strata/config"
	"github.com/z5labs/strata/internal/try"
	"github.com/z5labs/strata/pkg/otelconfig"
	"github.com/z5labs/strata/web"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSource struct {
	err error
}

func (s failingSource) Apply(config.Store) error {
	return s.err
}

type greetingConfig struct {
	Config `config:",squash"`

	Greeting string `config:"greeting"`
}

func greeter() Builder[greetingConfig] {
	return BuilderFunc[greetingConfig](func(ctx context.Context, cfg greetingConfig) (*web.App, error) {
		return web.New(
			web.Data(cfg.Greeting),
			web.HandleRoute("/hello/{name}", web.Get(web.With2(
				web.FromData[string](),
				web.FromPath("name"),
				func(ctx context.Context, req *web.Request, greeting, name string) (*web.Response, error) {
					return web.Text(http.StatusOK, greeting+", "+name), nil
				},
			))),
		), nil
	})
}

func testEnvironment(log io.Writer, served chan<- net.Addr) environment {
	env := defaultEnvironment()
	env.logOut = log
	env.onServe = func(addr net.Addr) {
		served <- addr
	}
	return env
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()

	client := retryablehttp.NewClient()
	client.Logger = nil
	client.RetryMax = 3
	client.RetryWaitMin = 10 * time.Millisecond
	client.RetryWaitMax = 50 * time.Millisecond

	resp, err := client.Get(url)
	require.Nil(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.Nil(t, err)
	return resp.StatusCode, string(b)
}

func serve(t *testing.T, ctx context.Context, start func(env environment) error) (net.Addr, <-chan error, *bytes.Buffer) {
	t.Helper()

	var logs bytes.Buffer
	served := make(chan net.Addr, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- start(testEnvironment(&logs, served))
	}()

	select {
	case addr := <-served:
		return addr, errCh, &logs
	case err := <-errCh:
		t.Fatalf("app stopped before serving: %s", err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not start serving")
	}
	return nil, nil, nil
}

func TestRun(t *testing.T) {
	t.Run("will serve the built app until the context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		srcs := []config.Source{
			config.Map{
				"greeting": "hello",
				"http": map[string]any{
					"addr":    "127.0.0.1:0",
					"workers": 2,
				},
				"logging": map[string]any{
					"level": "debug",
					"mask":  []any{"addr"},
				},
			},
		}

		addr, errCh, logs := serve(t, ctx, func(env environment) error {
			return run(ctx, env, greeter(), srcs...)
		})

		status, body := get(t, fmt.Sprintf("http://%s/hello/bob", addr))
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "hello, bob", body)

		status, _ = get(t, fmt.Sprintf("http://%s/nowhere", addr))
		assert.Equal(t, http.StatusNotFound, status)

		status, _ = get(t, fmt.Sprintf("http://%s/health/readiness", addr))
		assert.Equal(t, http.StatusOK, status)

		status, _ = get(t, fmt.Sprintf("http://%s/health/liveness", addr))
		assert.Equal(t, http.StatusOK, status)

		cancel()
		select {
		case err := <-errCh:
			require.Nil(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("app did not shut down")
		}
		require.Contains(t, logs.String(), `"msg":"serving http"`)
		require.Contains(t, logs.String(), `"addr":"****"`)
	})

	t.Run("will answer health checks ahead of the app's filters and routes", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		builder := BuilderFunc[Config](func(ctx context.Context, cfg Config) (*web.App, error) {
			return web.New(
				web.WithFilter(web.FilterFunc(func(ctx context.Context, req *web.Request) (web.FilterResult, error) {
					if req.Header().Get("Authorization") == "" {
						return web.Respond(web.NewResponse(http.StatusUnauthorized)), nil
					}
					return web.Next(req), nil
				})),
				web.HandleRoute("/{path}*", web.To(web.HandlerFunc(func(ctx context.Context, req *web.Request) (*web.Response, error) {
					return web.Text(http.StatusTeapot, "catch all"), nil
				}))),
			), nil
		})

		addr, errCh, _ := serve(t, ctx, func(env environment) error {
			return run(ctx, env, builder, config.Map{
				"http": map[string]any{
					"addr":    "127.0.0.1:0",
					"workers": 1,
				},
			})
		})

		status, _ := get(t, fmt.Sprintf("http://%s/health/liveness", addr))
		assert.Equal(t, http.StatusOK, status)

		status, _ = get(t, fmt.Sprintf("http://%s/health/readiness", addr))
		assert.Equal(t, http.StatusOK, status)

		status, _ = get(t, fmt.Sprintf("http://%s/health", addr))
		assert.Equal(t, http.StatusUnauthorized, status)

		cancel()
		select {
		case err := <-errCh:
			require.Nil(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("app did not shut down")
		}
	})

	t.Run("will not serve health checks", func(t *testing.T) {
		t.Run("if health is disabled", func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			addr, errCh, _ := serve(t, ctx, func(env environment) error {
				return run(ctx, env, greeter(), config.Map{
					"http": map[string]any{
						"addr":    "127.0.0.1:0",
						"workers": 1,
					},
					"health": map[string]any{
						"disabled": true,
					},
				})
			})

			status, _ := get(t, fmt.Sprintf("http://%s/health/liveness", addr))
			assert.Equal(t, http.StatusNotFound, status)

			cancel()
			select {
			case err := <-errCh:
				require.Nil(t, err)
			case <-time.After(5 * time.Second):
				t.Fatal("app did not shut down")
			}
		})
	})

	t.Run("will return a ConfigReadError", func(t *testing.T) {
		t.Run("if a config source fails to apply", func(t *testing.T) {
			srcErr := errors.New("failed to read")

			err := run(context.Background(), defaultEnvironment(), greeter(), failingSource{err: srcErr})

			var cerr ConfigReadError
			require.ErrorAs(t, err, &cerr)
			require.ErrorIs(t, err, srcErr)
		})
	})

	t.Run("will return a ConfigUnmarshalError", func(t *testing.T) {
		t.Run("if a config value can not be coerced", func(t *testing.T) {
			err := run(context.Background(), defaultEnvironment(), greeter(), config.Map{
				"http": map[string]any{
					"workers": "many",
				},
			})

			var cerr ConfigUnmarshalError
			require.ErrorAs(t, err, &cerr)
		})
	})

	t.Run("will return an OTelInitError", func(t *testing.T) {
		t.Run("if the exporter is unknown", func(t *testing.T) {
			err := run(context.Background(), defaultEnvironment(), greeter(), config.Map{
				"otel": map[string]any{
					"exporter": "zipkin",
				},
			})

			var oerr OTelInitError
			require.ErrorAs(t, err, &oerr)

			var uerr otelconfig.UnknownExporterError
			require.ErrorAs(t, err, &uerr)
		})
	})

	t.Run("will return an AppBuildError", func(t *testing.T) {
		t.Run("if the builder fails", func(t *testing.T) {
			buildErr := errors.New("failed to build")
			builder := BuilderFunc[Config](func(ctx context.Context, cfg Config) (*web.App, error) {
				return nil, buildErr
			})

			err := run(context.Background(), defaultEnvironment(), builder)

			var berr AppBuildError
			require.ErrorAs(t, err, &berr)
			require.ErrorIs(t, err, buildErr)
		})

		t.Run("if the builder returns a nil app", func(t *testing.T) {
			builder := BuilderFunc[Config](func(ctx context.Context, cfg Config) (*web.App, error) {
				return nil, nil
			})

			err := run(context.Background(), defaultEnvironment(), builder)

			var berr AppBuildError
			require.ErrorAs(t, err, &berr)
			require.ErrorIs(t, err, ErrNilApp)
		})
	})

	t.Run("will return an AppRunError", func(t *testing.T) {
		t.Run("if the listener can not be created", func(t *testing.T) {
			listenErr := errors.New("address in use")
			env := defaultEnvironment()
			env.logOut = io.Discard
			env.listen = func(network, addr string) (net.Listener, error) {
				return nil, listenErr
			}

			err := run(context.Background(), env, greeter())

			var rerr AppRunError
			require.ErrorAs(t, err, &rerr)
			require.ErrorIs(t, err, listenErr)
		})
	})

	t.Run("will recover from a panic", func(t *testing.T) {
		t.Run("if the builder panics", func(t *testing.T) {
			builder := BuilderFunc[Config](func(ctx context.Context, cfg Config) (*web.App, error) {
				panic("boom")
			})

			err := run(context.Background(), defaultEnvironment(), builder)

			var perr try.PanicError
			require.ErrorAs(t, err, &perr)
		})
	})
}

func TestConfig_withDefaults(t *testing.T) {
	t.Run("will fill in unset values", func(t *testing.T) {
		cfg := Config{}.withDefaults()
		require.Equal(t, ":8080", cfg.HTTP.Addr)
		require.GreaterOrEqual(t, cfg.HTTP.Workers, 1)
		require.Equal(t, 30*time.Second, cfg.HTTP.ShutdownTimeout)
	})

	t.Run("will keep configured values", func(t *testing.T) {
		var cfg Config
		cfg.HTTP.Addr = "127.0.0.1:9000"
		cfg.HTTP.Workers = 3

		cfg = cfg.withDefaults()
		require.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
		require.Equal(t, 3, cfg.HTTP.Workers)
	})
}

func TestCommand(t *testing.T) {
	t.Run("will layer defaults, the config file and environment variables", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		err := os.WriteFile(path, []byte("greeting: hi\nhttp:\n  addr: 127.0.0.1:0\n  workers: 1\n"), 0o600)
		require.Nil(t, err)

		t.Setenv("GREETER_TEST_GREETING", "howdy")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		addr, errCh, _ := serve(t, ctx, func(env environment) error {
			cmd := Command(
				"greeter-test",
				greeter(),
				Defaults(config.Map{"greeting": "hello"}),
				func(co *commandOptions) {
					co.env = env
				},
			)
			cmd.SetArgs([]string{"--config", path})
			return cmd.ExecuteContext(ctx)
		})

		status, body := get(t, fmt.Sprintf("http://%s/hello/bob", addr))
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "howdy, bob", body)

		cancel()
		select {
		case err := <-errCh:
			require.Nil(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("command did not shut down")
		}
	})

	t.Run("will decode a .json config file as JSON", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.json")
		err := os.WriteFile(path, []byte(`{"greeting": "hey", "http": {"addr": "127.0.0.1:0", "workers": 1}}`), 0o600)
		require.Nil(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		addr, errCh, _ := serve(t, ctx, func(env environment) error {
			cmd := Command(
				"greeter-json",
				greeter(),
				func(co *commandOptions) {
					co.env = env
				},
			)
			cmd.SetArgs([]string{"-c", path})
			return cmd.ExecuteContext(ctx)
		})

		status, body := get(t, fmt.Sprintf("http://%s/hello/bob", addr))
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "hey, bob", body)

		cancel()
		select {
		case err := <-errCh:
			require.Nil(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("command did not shut down")
		}
	})

	t.Run("will reject positional arguments", func(t *testing.T) {
		cmd := Command("greeter", greeter())
		cmd.SetArgs([]string{"extra"})
		cmd.SetOut(io.Discard)
		cmd.SetErr(io.Discard)

		err := cmd.Execute()
		require.NotNil(t, err)
	})
}
