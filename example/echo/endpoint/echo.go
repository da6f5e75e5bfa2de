// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package endpoint

import (
	"context"
	"mime"
	"net/http"

	"github.com/z5labs/strata/pkg/slogfield"
	"github.com/z5labs/strata/web"
)

// Prefix is prepended to every echoed message.
type Prefix string

type EchoRequest struct {
	Msg string `json:"msg"`
}

type EchoResponse struct {
	Msg string `json:"msg"`
}

// Routes registers the echo endpoints.
func Routes(cfg *web.ServiceConfig) {
	cfg.Service(
		web.NewResource("/echo",
			web.ResourceName("echo"),
			web.ResourceRoute(web.Post(web.With2(web.FromData[Prefix](), web.FromJSON[EchoRequest](), echo))),
		),
		web.NewResource("/echo/{msg}",
			web.ResourceName("echo_path"),
			web.ResourceRoute(web.Get(web.With2(web.FromData[Prefix](), web.FromPath("msg"), echoPath))),
		),
	)
}

func echo(ctx context.Context, req *web.Request, prefix Prefix, body EchoRequest) (*web.Response, error) {
	req.Logger().InfoContext(ctx, "echoing back received message to client", slogfield.String("echo_msg", body.Msg))
	return web.JSON(http.StatusOK, EchoResponse{Msg: string(prefix) + body.Msg})
}

func echoPath(ctx context.Context, req *web.Request, prefix Prefix, msg string) (*web.Response, error) {
	u, err := req.URLFor("echo_path", msg)
	if err != nil {
		return nil, err
	}

	resp := web.Text(http.StatusOK, string(prefix)+msg)
	resp.Header().Set("Content-Location", u)
	return resp, nil
}

// RequireJSON rejects POST requests whose body is not JSON before they
// are routed.
func RequireJSON() web.FilterFunc {
	return func(ctx context.Context, req *web.Request) (web.FilterResult, error) {
		if req.Method() != http.MethodPost {
			return web.Next(req), nil
		}

		mt, _, err := mime.ParseMediaType(req.Header().Get("Content-Type"))
		if err != nil || mt != "application/json" {
			return web.Respond(web.Text(http.StatusUnsupportedMediaType, "expected application/json")), nil
		}
		return web.Next(req), nil
	}
}
