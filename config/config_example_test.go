// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"fmt"
	"strings"
	"time"
)

func ExampleManager_Unmarshal() {
	m, err := Read(
		FromYaml(strings.NewReader("shutdown_timeout: 30s\nname: hello\n")),
		Map{"name": "goodbye"},
	)
	if err != nil {
		fmt.Println(err)
		return
	}

	var cfg struct {
		Name            string        `config:"name"`
		ShutdownTimeout time.Duration `config:"shutdown_timeout"`
	}
	err = m.Unmarshal(&cfg)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(cfg.Name)
	fmt.Println(cfg.ShutdownTimeout)
	// Output: goodbye
	// 30s
}
