// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package web

import (
	"context"
	"log/slog"
	"net/http"
	"slices"

	"github.com/z5labs/strata/pkg/noop"
	"github.com/z5labs/strata/pkg/otelslog"
	"github.com/z5labs/strata/pkg/slogfield"
	"github.com/z5labs/strata/pkg/typemap"
	"github.com/z5labs/strata/router"
	"github.com/z5labs/strata/service"
)

// Option configures an [App].
type Option func(*App)

// Data registers v as application data of type T. The same value is
// shared by every worker. A later registration of the same type wins.
func Data[T any](v T) Option {
	return func(a *App) {
		typemap.Insert(a.data, v)
	}
}

// DataFactory registers f as a constructor for application data of type T.
// f is invoked once per worker while its service graph is constructed.
// If f fails the error is logged and the entry is left absent, handlers
// requesting it then fail with a [MissingDataError].
func DataFactory[T any](f func(context.Context) (T, error)) Option {
	return func(a *App) {
		a.dataFactories = append(a.dataFactories, newDataFactory(f))
	}
}

// AppData registers v in the extensions map, which is looked up with
// [GetExtension] or [FromExtension]. Each worker gets its own copy of
// the map while the values themselves are shared.
func AppData[T any](v T) Option {
	return func(a *App) {
		typemap.Insert(a.extensions, v)
	}
}

// WithFilter appends filter steps. Filters run in registration order
// before any middleware or routing.
func WithFilter(filters ...Filter) Option {
	return func(a *App) {
		a.filters = append(a.filters, filters...)
	}
}

// Wrap registers middleware around the router. The first registered
// middleware is innermost, observing the request last and the response first.
func Wrap(t service.Transform[*Request, *Response]) Option {
	return func(a *App) {
		a.middleware = service.NewStack(a.middleware, t)
	}
}

// WithService registers resources. Resources are matched in registration order.
func WithService(resources ...*Resource) Option {
	return func(a *App) {
		a.resources = append(a.resources, resources...)
	}
}

// HandleRoute registers a resource for pattern with a single route.
func HandleRoute(pattern string, route *Route) Option {
	return WithService(NewResource(pattern, ResourceRoute(route)))
}

// DefaultService sets the handler invoked when no resource matches.
// Without one such requests receive 404 Not Found.
func DefaultService(h Handler) Option {
	return func(a *App) {
		a.defaultHandler = h
	}
}

// ExternalResource registers a named pattern which is only used for URL
// generation. It never takes part in request matching. It panics if the
// pattern is invalid.
func ExternalResource(name, pattern string) Option {
	return func(a *App) {
		a.external = append(a.external, router.MustParse(pattern).WithName(name))
	}
}

// CaseInsensitiveRouting makes static path segments match regardless of case.
// Values captured by dynamic segments are left as they were sent.
func CaseInsensitiveRouting() Option {
	return func(a *App) {
		a.caseInsensitive = true
	}
}

// OnError sets the [ErrorRenderer] used to convert errors into responses.
func OnError(r ErrorRenderer) Option {
	return func(a *App) {
		a.renderer = r
	}
}

// LogHandler configures the underlying [slog.Handler] for the application logger.
func LogHandler(h slog.Handler) Option {
	return func(a *App) {
		a.log = otelslog.New(h)
	}
}

// ServiceConfig collects registrations from functions passed to [Configure],
// which lets route tables be declared apart from the application.
type ServiceConfig struct {
	opts []Option
}

// Apply adds arbitrary options, e.g. [Data] or [DataFactory].
func (c *ServiceConfig) Apply(opts ...Option) *ServiceConfig {
	c.opts = append(c.opts, opts...)
	return c
}

// Service registers resources.
func (c *ServiceConfig) Service(resources ...*Resource) *ServiceConfig {
	return c.Apply(WithService(resources...))
}

// Route registers a resource for pattern with a single route.
func (c *ServiceConfig) Route(pattern string, route *Route) *ServiceConfig {
	return c.Apply(HandleRoute(pattern, route))
}

// ExternalResource registers a named pattern for URL generation only.
func (c *ServiceConfig) ExternalResource(name, pattern string) *ServiceConfig {
	return c.Apply(ExternalResource(name, pattern))
}

// Configure runs f against a [ServiceConfig] and applies everything it registered.
func Configure(f func(*ServiceConfig)) Option {
	return func(a *App) {
		var cfg ServiceConfig
		f(&cfg)
		for _, opt := range cfg.opts {
			opt(a)
		}
	}
}

// App collects registrations for an application. It is turned into a
// [service.Factory] with [App.Finish].
type App struct {
	data            *typemap.Map
	dataFactories   []dataFactory
	extensions      *typemap.Map
	filters         []Filter
	middleware      service.Transform[*Request, *Response]
	resources       []*Resource
	external        []router.ResourceDef
	defaultHandler  Handler
	caseInsensitive bool
	renderer        ErrorRenderer
	log             *slog.Logger
}

// New returns an [App] configured with opts.
func New(opts ...Option) *App {
	a := &App{
		data:       typemap.New(),
		extensions: typemap.New(),
		middleware: service.Identity[*Request, *Response]{},
		renderer:   DefaultErrorRenderer{},
		log:        noop.Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// With returns a new [App] with opts applied on top of a's registrations.
// a itself is left unchanged.
func (a *App) With(opts ...Option) *App {
	c := a.clone()
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (a *App) clone() *App {
	return &App{
		data:            a.data.Clone(),
		dataFactories:   slices.Clone(a.dataFactories),
		extensions:      a.extensions.Clone(),
		filters:         slices.Clone(a.filters),
		middleware:      a.middleware,
		resources:       slices.Clone(a.resources),
		external:        slices.Clone(a.external),
		defaultHandler:  a.defaultHandler,
		caseInsensitive: a.caseInsensitive,
		renderer:        a.renderer,
		log:             a.log,
	}
}

// Finish freezes the registrations of a into an [AppFactory]. Changes made
// to a afterwards are not observed by the returned factory.
func (a *App) Finish() *AppFactory {
	frozen := a.clone()

	rmap := router.NewResourceMap()
	for _, res := range frozen.resources {
		rmap.Add(res.def)
	}
	for _, def := range frozen.external {
		rmap.Add(def)
	}

	return &AppFactory{
		app:  frozen,
		rmap: rmap,
	}
}

// AppFactory constructs one independent application service per worker.
type AppFactory struct {
	app  *App
	rmap *router.ResourceMap
}

// WithConfig binds the factory to a fixed [AppConfig].
func (f *AppFactory) WithConfig(cfg AppConfig) service.Factory[struct{}, *http.Request, *Response] {
	return service.MapConfig[struct{}, AppConfig, *http.Request, *Response](f, func(struct{}) AppConfig {
		return cfg
	})
}

// NewService implements the [service.Factory] interface. Any returned
// error is a [service.NewServiceError] and is fatal to the calling worker.
func (f *AppFactory) NewService(ctx context.Context, cfg AppConfig) (service.Service[*http.Request, *Response], error) {
	a := f.app
	state := &appState{
		config:     cfg,
		data:       buildData(ctx, a.log, a.data, a.dataFactories),
		extensions: a.extensions.Clone(),
		resources:  f.rmap,
		renderer:   a.renderer,
		log:        a.log,
	}

	filters, err := buildFilterChain(ctx, cfg, a.filters)
	if err != nil {
		return nil, f.constructionFailed(ctx, "failed to construct filter", err)
	}

	var defaultSvc service.Service[*Request, *Response]
	if a.defaultHandler != nil {
		defaultSvc, err = a.defaultHandler.NewService(ctx, cfg)
		if err != nil {
			return nil, f.constructionFailed(ctx, "failed to construct default service", err)
		}
	}

	var opts []router.Option
	if a.caseInsensitive {
		opts = append(opts, router.CaseInsensitive())
	}
	r := router.New[*resourceService](opts...)
	for _, res := range a.resources {
		rs, err := res.newService(ctx, cfg)
		if err != nil {
			return nil, f.constructionFailed(ctx, "failed to construct resource "+res.def.Pattern(), err)
		}
		r.Add(res.def, rs)
	}

	routing := &routerService{
		router:     r,
		defaultSvc: defaultSvc,
	}
	return &AppService{
		state:   state,
		filters: filters,
		svc:     a.middleware.Wrap(routing),
	}, nil
}

func (f *AppFactory) constructionFailed(ctx context.Context, msg string, err error) error {
	f.app.log.ErrorContext(ctx, msg, slogfield.Error(err))
	return service.NewServiceError{Cause: err}
}

// routerService dispatches requests to the first matching resource,
// falling back to the application default and then 404.
type routerService struct {
	router     *router.Router[*resourceService]
	defaultSvc service.Service[*Request, *Response]
}

// Ready implements the [service.Service] interface. The matched target
// is readied when the request is dispatched.
func (s *routerService) Ready(ctx context.Context) error {
	return nil
}

// Call implements the [service.Service] interface.
func (s *routerService) Call(ctx context.Context, req *Request) (*Response, error) {
	hr := req.HTTP()
	rs, path, ok := s.router.Recognize(req.Path(), func(rs *resourceService) bool {
		return rs.guards.Check(hr)
	})
	if ok {
		routed := *req
		routed.path = path
		routed.pattern = rs.pattern
		return service.Call[*Request, *Response](ctx, rs, &routed)
	}
	if s.defaultSvc != nil {
		return service.Call(ctx, s.defaultSvc, req)
	}
	return NewResponse(http.StatusNotFound), nil
}

// AppService is the per worker application service. It never returns
// an error, every failure is rendered into a response.
type AppService struct {
	state   *appState
	filters service.Service[FilterResult, FilterResult]
	svc     service.Service[*Request, *Response]
}

// Ready implements the [service.Service] interface. Filters, middleware
// and handlers are readied as a request reaches them.
func (s *AppService) Ready(ctx context.Context) error {
	return ctx.Err()
}

// Call implements the [service.Service] interface.
func (s *AppService) Call(ctx context.Context, hr *http.Request) (*Response, error) {
	req := newRequest(hr, s.state)

	res, err := service.Call(ctx, s.filters, Next(req))
	if err != nil {
		return s.render(ctx, req, err), nil
	}
	if resp, ok := res.Response(); ok {
		return resp, nil
	}
	req, _ = res.Request()

	resp, err := service.Call(ctx, s.svc, req)
	if err != nil {
		return s.render(ctx, req, err), nil
	}
	if resp == nil {
		return s.render(ctx, req, ErrNilResponse), nil
	}
	return resp, nil
}

func (s *AppService) render(ctx context.Context, req *Request, err error) *Response {
	s.state.log.ErrorContext(ctx, "unhandled error", slogfield.Error(err))
	return s.state.renderer.RenderError(ctx, req, err)
}
