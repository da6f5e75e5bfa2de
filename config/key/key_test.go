// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package key

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	testCases := []struct {
		Name     string
		Path     string
		Expected Keyer
	}{
		{
			Name:     "single name",
			Path:     "addr",
			Expected: Name("addr"),
		},
		{
			Name:     "nested names",
			Path:     "http__addr",
			Expected: Chain{Name("http"), Name("addr")},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			k := Split(testCase.Path, "__")
			assert.Equal(t, testCase.Expected, k)
		})
	}
}

func TestChain_Key(t *testing.T) {
	t.Run("will join the keys with a dot", func(t *testing.T) {
		assert.Equal(t, "a.b.c", Chain{Name("a"), Name("b"), Name("c")}.Key())
	})
}
