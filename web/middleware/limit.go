// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package middleware

import (
	"github.com/z5labs/strata/service"
	"github.com/z5labs/strata/web"
)

// Limit bounds the number of requests a worker handles concurrently to n.
// Callers are held in Ready while the limit is reached. Limit panics if
// n is less than 1.
func Limit(n int64) Transform {
	return service.Limit[*web.Request, *web.Response](n)
}
