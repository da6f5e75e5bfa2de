// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package typemap

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type counter struct {
	n int
}

func TestGet(t *testing.T) {
	t.Run("will return false", func(t *testing.T) {
		t.Run("if the map is nil", func(t *testing.T) {
			var m *Map
			_, ok := Get[int](m)
			assert.False(t, ok)
		})

		t.Run("if no value of the exact type was inserted", func(t *testing.T) {
			m := New()
			Insert(m, uint32(10))

			_, ok := Get[uint](m)
			assert.False(t, ok)
		})
	})

	t.Run("will return the most recently inserted value", func(t *testing.T) {
		t.Run("if the same type is inserted twice", func(t *testing.T) {
			m := New()
			Insert(m, "first")
			Insert(m, "second")

			v, ok := Get[string](m)
			if !assert.True(t, ok) {
				return
			}
			assert.Equal(t, "second", v)
			assert.Equal(t, 1, m.Len())
		})
	})

	t.Run("will share pointer values", func(t *testing.T) {
		m := New()
		c := &counter{}
		Insert(m, c)

		got, ok := Get[*counter](m)
		if !assert.True(t, ok) {
			return
		}
		got.n++
		assert.Equal(t, 1, c.n)
	})

	t.Run("will key interface types separately from their implementations", func(t *testing.T) {
		m := New()
		Insert[io.Reader](m, strings.NewReader("hello"))

		_, ok := Get[*strings.Reader](m)
		assert.False(t, ok)
		_, ok = Get[io.Reader](m)
		assert.True(t, ok)
	})
}

func TestMap_Clone(t *testing.T) {
	t.Run("will not share inserts with the original", func(t *testing.T) {
		a := New()
		Insert(a, 1)

		b := a.Clone()
		Insert(b, "b")

		_, ok := Get[string](a)
		assert.False(t, ok)
		_, ok = Get[int](b)
		assert.True(t, ok)
		assert.Equal(t, 1, a.Len())
		assert.Equal(t, 2, b.Len())
	})
}

func ExampleGet() {
	var m Map
	Insert(&m, 10)
	Insert(&m, uint32(5))

	n, ok := Get[int](&m)
	fmt.Println(n, ok)

	_, ok = Get[int64](&m)
	fmt.Println(ok)
	// Output: 10 true
	// false
}
