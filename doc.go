// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package strata runs web applications built with package web.
//
// An application is described by a [Builder] which turns a config value
// into a [web.App]. [Run] then takes care of the low level concerns:
//
//   - Reading and merging config sources into the config type
//   - Structured JSON logging correlated with the active trace
//   - Initializing an OpenTelemetry tracer provider and propagators
//   - Constructing one independent service graph per worker
//   - Serving HTTP until an interrupt is received and shutting down gracefully
//
// Config types embed [Config] to pick up the settings Run understands:
//
//	type MyConfig struct {
//		strata.Config `config:",squash"`
//
//		Greeting string `config:"greeting"`
//	}
//
//	func main() {
//		builder := strata.BuilderFunc[MyConfig](func(ctx context.Context, cfg MyConfig) (*web.App, error) {
//			return web.New(
//				web.Data(cfg.Greeting),
//				web.HandleRoute("/hello", web.Get(hello)),
//			), nil
//		})
//
//		err := strata.Command("hello", builder).Execute()
//		if err != nil {
//			os.Exit(1)
//		}
//	}
package strata
