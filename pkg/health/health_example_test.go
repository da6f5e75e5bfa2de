// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package health

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
)

func ExampleBinary() {
	var b Binary
	fmt.Println(b.Healthy(context.Background()))

	b.MarkUnhealthy()
	fmt.Println(b.Healthy(context.Background()))
	// Output: true
	// false
}

func ExampleAnd() {
	var db, cache Binary
	cache.MarkUnhealthy()

	fmt.Println(And(&db, &cache).Healthy(context.Background()))
	fmt.Println(Or(&db, &cache).Healthy(context.Background()))
	fmt.Println(Not(&cache).Healthy(context.Background()))
	// Output: false
	// true
	// true
}

func ExampleHandler() {
	var ready Binary
	h := Handler(&ready)

	ready.MarkUnhealthy()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/readiness", nil))
	fmt.Println(w.Code)
	// Output: 503
}
