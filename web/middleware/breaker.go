// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/z5labs/strata/pkg/noop"
	"github.com/z5labs/strata/pkg/slogfield"
	"github.com/z5labs/strata/web"

	"github.com/sony/gobreaker"
)

type breakerOptions struct {
	maxRequests uint32
	interval    time.Duration
	timeout     time.Duration
	tripCount   uint32
	tripOn      map[int]struct{}
	log         *slog.Logger
}

// BreakerOption configures [Breaker].
type BreakerOption func(*breakerOptions)

// HalfOpenRequests is the number of requests let through while the circuit is half open.
func HalfOpenRequests(n uint32) BreakerOption {
	return func(o *breakerOptions) {
		o.maxRequests = n
	}
}

// OpenStateTimeout is how long the circuit stays open before becoming half open.
func OpenStateTimeout(d time.Duration) BreakerOption {
	return func(o *breakerOptions) {
		o.timeout = d
	}
}

// CountResetInterval is the cyclic period after which failure counts are
// cleared while the circuit is closed.
func CountResetInterval(d time.Duration) BreakerOption {
	return func(o *breakerOptions) {
		o.interval = d
	}
}

// TripAfter opens the circuit after n consecutive failures.
func TripAfter(n uint32) BreakerOption {
	return func(o *breakerOptions) {
		o.tripCount = n
	}
}

// TripOn sets the response status codes counted as failures.
// It defaults to every 5xx status.
func TripOn(statusCodes ...int) BreakerOption {
	return func(o *breakerOptions) {
		o.tripOn = make(map[int]struct{}, len(statusCodes))
		for _, code := range statusCodes {
			o.tripOn[code] = struct{}{}
		}
	}
}

// BreakerLogger sets the logger circuit state changes are reported to.
func BreakerLogger(log *slog.Logger) BreakerOption {
	return func(o *breakerOptions) {
		o.log = log
	}
}

// BreakerOpenError is returned while the circuit rejects requests.
type BreakerOpenError struct {
	Name  string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e BreakerOpenError) Error() string {
	return fmt.Sprintf("circuit breaker %s rejected request: %s", e.Name, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e BreakerOpenError) Unwrap() error {
	return e.Cause
}

// StatusCode implements the web.StatusCoder interface.
func (e BreakerOpenError) StatusCode() int {
	return http.StatusServiceUnavailable
}

type failedStatusError struct {
	status int
}

func (e failedStatusError) Error() string {
	return fmt.Sprintf("response status counted as failure: %d", e.status)
}

// Breaker stops calling the wrapped service once it keeps failing. Errors and
// responses with a tripping status code count as failures. While the circuit
// is open every request fails with a [BreakerOpenError].
//
// Each worker gets its own circuit.
func Breaker(name string, opts ...BreakerOption) Transform {
	o := &breakerOptions{
		tripCount: 5,
		log:       noop.Logger(),
	}
	for _, opt := range opts {
		opt(o)
	}

	return transform(func(next handler) handler {
		log := o.log.With(slogfield.String("circuit_breaker", name))
		return &breaker{
			name: name,
			next: next,
			o:    o,
			cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
				Name:        name,
				MaxRequests: o.maxRequests,
				Interval:    o.interval,
				Timeout:     o.timeout,
				ReadyToTrip: func(counts gobreaker.Counts) bool {
					return counts.ConsecutiveFailures >= o.tripCount
				},
				OnStateChange: func(name string, from, to gobreaker.State) {
					switch to {
					case gobreaker.StateOpen:
						log.Error("circuit has been opened")
					case gobreaker.StateHalfOpen:
						log.Warn(
							"circuit is now half open and letting some requests through",
							slogfield.Uint32("max_requests_allowed_through", o.maxRequests),
						)
					case gobreaker.StateClosed:
						log.Info("circuit has been closed")
					}
				},
			}),
		}
	})
}

type breaker struct {
	name string
	next handler
	o    *breakerOptions
	cb   *gobreaker.CircuitBreaker
}

func (s *breaker) Ready(ctx context.Context) error {
	return s.next.Ready(ctx)
}

func (s *breaker) Call(ctx context.Context, req *web.Request) (*web.Response, error) {
	var resp *web.Response
	_, err := s.cb.Execute(func() (interface{}, error) {
		var err error
		resp, err = s.next.Call(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp != nil && s.trips(resp.Status()) {
			return nil, failedStatusError{status: resp.Status()}
		}
		return nil, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, BreakerOpenError{Name: s.name, Cause: err}
	}
	var ferr failedStatusError
	if errors.As(err, &ferr) {
		return resp, nil
	}
	return resp, err
}

func (s *breaker) trips(status int) bool {
	if s.o.tripOn == nil {
		return status >= 500
	}
	_, ok := s.o.tripOn[status]
	return ok
}
