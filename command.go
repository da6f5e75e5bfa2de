// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package strata

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/z5labs/strata/config"

	"github.com/spf13/cobra"
)

// CommandOption configures the command returned by [Command].
type CommandOption func(*commandOptions)

type commandOptions struct {
	envPrefix string
	defaults  []config.Source
	env       environment
}

// EnvPrefix sets the prefix of environment variables applied on top of
// the config file. It defaults to the upper cased command name followed
// by an underscore.
func EnvPrefix(prefix string) CommandOption {
	return func(co *commandOptions) {
		co.envPrefix = prefix
	}
}

// Defaults registers config sources applied before the config file.
func Defaults(srcs ...config.Source) CommandOption {
	return func(co *commandOptions) {
		co.defaults = append(co.defaults, srcs...)
	}
}

// Command returns a [cobra.Command] which runs the application built by
// builder. Config is layered in the following order with later sources
// overriding earlier ones: [Defaults], the file given by --config, and
// environment variables. The file is decoded as JSON if it ends in .json
// and as YAML otherwise.
func Command[T Configurable](name string, builder Builder[T], opts ...CommandOption) *cobra.Command {
	co := &commandOptions{
		envPrefix: strings.ToUpper(strings.ReplaceAll(name, "-", "_")) + "_",
		env:       defaultEnvironment(),
	}
	for _, opt := range opts {
		opt(co)
	}

	var configPath string
	cmd := &cobra.Command{
		Use:           name,
		Short:         "Serve " + name + " over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srcs := append([]config.Source{}, co.defaults...)
			if configPath != "" {
				dir, file := filepath.Dir(configPath), filepath.Base(configPath)
				srcs = append(srcs, config.FromFile(os.DirFS(dir), file))
			}
			srcs = append(srcs, config.FromEnv(co.envPrefix))

			return run(cmd.Context(), co.env, builder, srcs...)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML or JSON config file")
	return cmd
}
