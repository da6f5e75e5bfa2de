// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package strata

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/z5labs/strata/pkg/otelconfig"
	"github.com/z5labs/strata/web"
)

// HTTPConfig configures the listener and the workers serving it.
type HTTPConfig struct {
	Addr              string        `config:"addr"`
	Workers           int           `config:"workers"`
	ReadTimeout       time.Duration `config:"read_timeout"`
	ReadHeaderTimeout time.Duration `config:"read_header_timeout"`
	WriteTimeout      time.Duration `config:"write_timeout"`
	IdleTimeout       time.Duration `config:"idle_timeout"`
	ShutdownTimeout   time.Duration `config:"shutdown_timeout"`
}

// LoggingConfig configures the application logger.
type LoggingConfig struct {
	Level slog.Level `config:"level"`

	// Attribute keys whose values are replaced with "****".
	Mask []string `config:"mask"`
}

// HealthConfig configures the liveness and readiness resources
// registered alongside the application's own resources.
type HealthConfig struct {
	Disabled      bool   `config:"disabled"`
	LivenessPath  string `config:"liveness_path"`
	ReadinessPath string `config:"readiness_path"`
}

// Config is the base configuration every application is run with.
//
// Custom configuration embeds it with the squash tag, e.g.
//
//	type MyConfig struct {
//		strata.Config `config:",squash"`
//
//		Greeting string `config:"greeting"`
//	}
type Config struct {
	HTTP    HTTPConfig        `config:"http"`
	App     web.AppConfig     `config:"app"`
	Logging LoggingConfig     `config:"logging"`
	Health  HealthConfig      `config:"health"`
	OTel    otelconfig.Config `config:"otel"`
}

// Configurable is implemented by any type embedding [Config].
type Configurable interface {
	BaseConfig() Config
}

// BaseConfig implements the [Configurable] interface.
func (c Config) BaseConfig() Config {
	return c
}

func (c Config) withDefaults() Config {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.Workers < 1 {
		c.HTTP.Workers = runtime.NumCPU()
	}
	if c.Health.LivenessPath == "" {
		c.Health.LivenessPath = "/health/liveness"
	}
	if c.Health.ReadinessPath == "" {
		c.Health.ReadinessPath = "/health/readiness"
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = 30 * time.Second
	}
	return c
}
