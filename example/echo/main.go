// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"github.com/z5labs/strata"
	"github.com/z5labs/strata/config"
	"github.com/z5labs/strata/example/echo/app"
)

//go:embed config.yaml
var cfgSrc []byte

func main() {
	cmd := strata.Command(
		"echo",
		strata.BuilderFunc[app.Config](app.Init),
		strata.Defaults(config.FromYaml(bytes.NewReader(cfgSrc))),
	)

	err := cmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
