// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package web

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
)

// Response is the outcome of handling a [Request].
type Response struct {
	status int
	header http.Header
	body   []byte
}

// NewResponse returns an empty [Response] with the given status code.
func NewResponse(status int) *Response {
	return &Response{
		status: status,
		header: make(http.Header),
	}
}

// Text returns a [Response] with a plain text body.
func Text(status int, s string) *Response {
	resp := NewResponse(status)
	resp.header.Set("Content-Type", "text/plain; charset=utf-8")
	resp.body = []byte(s)
	return resp
}

// JSON returns a [Response] with v encoded as its JSON body.
func JSON(status int, v any) (*Response, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	resp := NewResponse(status)
	resp.header.Set("Content-Type", "application/json")
	resp.body = b
	return resp, nil
}

// Status returns the HTTP status code.
func (r *Response) Status() int {
	return r.status
}

// SetStatus overrides the HTTP status code.
func (r *Response) SetStatus(status int) *Response {
	r.status = status
	return r
}

// Header returns the response headers.
func (r *Response) Header() http.Header {
	return r.header
}

// Body returns the response body.
func (r *Response) Body() []byte {
	return r.body
}

// SetBody replaces the response body.
func (r *Response) SetBody(b []byte) *Response {
	r.body = b
	return r
}

// WriteTo writes the status code, headers and body to w.
func (r *Response) WriteTo(w http.ResponseWriter) error {
	h := w.Header()
	for k, vs := range r.header {
		h[k] = vs
	}
	if len(r.body) > 0 && h.Get("Content-Length") == "" {
		h.Set("Content-Length", strconv.Itoa(len(r.body)))
	}
	w.WriteHeader(r.status)

	_, err := io.Copy(w, bytes.NewReader(r.body))
	return err
}
