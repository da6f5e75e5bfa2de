// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/z5labs/strata"
	"github.com/z5labs/strata/example/echo/endpoint"
	"github.com/z5labs/strata/web"
	"github.com/z5labs/strata/web/middleware"
)

// Config is the echo service configuration.
type Config struct {
	strata.Config `config:",squash"`

	Prefix      string `config:"prefix"`
	MaxInFlight int64  `config:"max_in_flight"`
}

// ErrMaxInFlight is returned when max_in_flight is not a positive number.
var ErrMaxInFlight = errors.New("max_in_flight must be at least 1")

// Init builds the echo application.
func Init(ctx context.Context, cfg Config) (*web.App, error) {
	if cfg.MaxInFlight < 1 {
		return nil, ErrMaxInFlight
	}

	metrics, err := middleware.Metrics()
	if err != nil {
		return nil, err
	}

	app := web.New(
		web.Data(endpoint.Prefix(cfg.Prefix)),
		web.WithFilter(endpoint.RequireJSON()),
		web.Wrap(middleware.Limit(cfg.MaxInFlight)),
		web.Wrap(middleware.Recover()),
		web.Wrap(metrics),
		web.Wrap(middleware.Trace()),
		web.Wrap(middleware.RequestID()),
		web.Wrap(middleware.DefaultHeaders(http.Header{
			"Server": []string{"echo"},
		})),
		web.Configure(endpoint.Routes),
	)
	return app, nil
}
