// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
)

// StatusCoder is implemented by errors which know which HTTP status
// code they should be rendered with.
type StatusCoder interface {
	StatusCode() int
}

// ErrorRenderer converts errors into well formed responses.
type ErrorRenderer interface {
	RenderError(context.Context, *Request, error) *Response
}

// ErrorRendererFunc is a functional implementation of the [ErrorRenderer] interface.
type ErrorRendererFunc func(context.Context, *Request, error) *Response

// RenderError implements the [ErrorRenderer] interface.
func (f ErrorRendererFunc) RenderError(ctx context.Context, req *Request, err error) *Response {
	return f(ctx, req, err)
}

// DefaultErrorRenderer renders errors as plain text. The status code is taken
// from the first [StatusCoder] in the error chain, defaulting to 500. The error
// message is only included in the body if [AppConfig.Development] is set.
type DefaultErrorRenderer struct{}

// RenderError implements the [ErrorRenderer] interface.
func (DefaultErrorRenderer) RenderError(ctx context.Context, req *Request, err error) *Response {
	status := http.StatusInternalServerError

	var sc StatusCoder
	if errors.As(err, &sc) {
		status = sc.StatusCode()
	}

	body := http.StatusText(status)
	if req != nil && req.AppConfig().Development {
		body = fmt.Sprintf("%s: %s", body, err)
	}
	return Text(status, body)
}

// MissingDataError is returned when a handler requests application data
// of a type no data entry was registered for.
type MissingDataError struct {
	Type reflect.Type
}

// Error implements the [builtin.error] interface.
func (e MissingDataError) Error() string {
	return fmt.Sprintf("missing application data of type: %s", e.Type)
}

// StatusCode implements the [StatusCoder] interface.
func (e MissingDataError) StatusCode() int {
	return http.StatusInternalServerError
}

// ExtractError wraps any failure to produce a typed handler argument from a request.
type ExtractError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ExtractError) Error() string {
	return fmt.Sprintf("failed to extract handler argument: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ExtractError) Unwrap() error {
	return e.Cause
}

// StatusCode implements the [StatusCoder] interface.
func (e ExtractError) StatusCode() int {
	var sc StatusCoder
	if errors.As(e.Cause, &sc) {
		return sc.StatusCode()
	}
	return http.StatusBadRequest
}

// MissingParamError is returned when a path parameter was not captured.
type MissingParamError struct {
	Name string
}

// Error implements the [builtin.error] interface.
func (e MissingParamError) Error() string {
	return fmt.Sprintf("missing path parameter: %s", e.Name)
}

// StatusCode implements the [StatusCoder] interface.
func (e MissingParamError) StatusCode() int {
	return http.StatusNotFound
}

// MissingQueryError is returned when a required query parameter is absent.
type MissingQueryError struct {
	Name string
}

// Error implements the [builtin.error] interface.
func (e MissingQueryError) Error() string {
	return fmt.Sprintf("missing query parameter: %s", e.Name)
}

// StatusCode implements the [StatusCoder] interface.
func (e MissingQueryError) StatusCode() int {
	return http.StatusBadRequest
}

// ErrNilResponse is rendered when a handler returns neither a response nor an error.
var ErrNilResponse = errors.New("handler returned a nil response")
