// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"os"
	"strings"

	"github.com/z5labs/strata/config/key"
)

// Env represents a Source where its underlying values
// are extracted from environment variables.
//
// Only variables starting with the configured prefix are applied. The
// prefix is trimmed, the rest of the name is lower cased and split on
// double underscores into nested keys, e.g. with the prefix "STRATA_"
// the variable STRATA_HTTP__ADDR sets http.addr.
type Env struct {
	prefix  string
	environ func() []string
}

// EnvOption configures an [Env] source.
type EnvOption func(*Env)

// Environ overrides where the environment variables are read from.
func Environ(f func() []string) EnvOption {
	return func(e *Env) {
		e.environ = f
	}
}

// FromEnv returns a Source which will apply its config
// from the environment variables available to the
// current process.
func FromEnv(prefix string, opts ...EnvOption) Env {
	e := Env{
		prefix:  prefix,
		environ: os.Environ,
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// Apply implements the Source interface.
func (src Env) Apply(store Store) error {
	for _, pair := range src.environ() {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || !strings.HasPrefix(k, src.prefix) {
			continue
		}

		k = strings.ToLower(strings.TrimPrefix(k, src.prefix))
		if k == "" {
			continue
		}

		err := store.Set(key.Split(k, "__"), v)
		if err != nil {
			return err
		}
	}
	return nil
}
