// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package web assembles an HTTP application from resources, filters,
// middleware and typed application state.
//
// An [App] only collects registrations. [App.Finish] freezes them into an
// [AppFactory] which every worker uses to construct its own independent
// service graph:
//
//	inbound request
//	  -> filters, in registration order, any of which may respond early
//	  -> middleware, last registered outermost
//	  -> router: matched resource, then the application default, then 404
//	  -> handler
//
// Errors never escape the graph. Anything left unhandled by middleware is
// rendered into a response by the configured [ErrorRenderer].
package web
