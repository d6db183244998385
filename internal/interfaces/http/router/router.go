// Package router mounts domain route groups under a versioned API prefix.
package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// RouteRegistrar is anything that can mount its routes on a group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Route describes one mounted endpoint
type Route struct {
	Method string
	Path   string
}

// Router mounts registrars under /api/<version>. Middleware given with
// WithMiddleware applies to the API group only, so probes mounted directly
// on the engine stay unauthenticated.
type Router struct {
	engine     *gin.Engine
	apiVersion string
	middleware []gin.HandlerFunc
	registrars []RouteRegistrar
}

// Option configures a Router
type Option func(*Router)

// WithAPIVersion sets the version segment of the prefix, "v1" by default
func WithAPIVersion(version string) Option {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// WithMiddleware adds handlers that run before every API route
func WithMiddleware(handlers ...gin.HandlerFunc) Option {
	return func(r *Router) {
		r.middleware = append(r.middleware, handlers...)
	}
}

// NewRouter creates a Router on engine
func NewRouter(engine *gin.Engine, opts ...Option) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues a registrar for Setup
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Prefix is the API base path, e.g. /api/v1
func (r *Router) Prefix() string {
	return "/api/" + r.apiVersion
}

// Setup mounts every registrar and returns the API routes it added
func (r *Router) Setup() []Route {
	existing := make(map[Route]struct{})
	for _, info := range r.engine.Routes() {
		existing[Route{Method: info.Method, Path: info.Path}] = struct{}{}
	}

	api := r.engine.Group(r.Prefix(), r.middleware...)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}

	var added []Route
	for _, info := range r.engine.Routes() {
		rt := Route{Method: info.Method, Path: info.Path}
		if _, ok := existing[rt]; !ok {
			added = append(added, rt)
		}
	}
	return added
}

// DomainGroup collects the routes of one domain under a prefix. Routes are
// mounted only when RegisterRoutes runs.
type DomainGroup struct {
	prefix     string
	middleware []gin.HandlerFunc
	routes     []Route
	handlers   [][]gin.HandlerFunc
	subgroups  []*DomainGroup
}

// NewDomainGroup creates a group mounted at prefix
func NewDomainGroup(prefix string) *DomainGroup {
	return &DomainGroup{prefix: prefix}
}

// Use adds middleware scoped to this group and its subgroups
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

// GET registers a GET route
func (dg *DomainGroup) GET(relativePath string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.add(http.MethodGet, relativePath, handlers)
}

// POST registers a POST route
func (dg *DomainGroup) POST(relativePath string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.add(http.MethodPost, relativePath, handlers)
}

func (dg *DomainGroup) add(method, relativePath string, handlers []gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, Route{Method: method, Path: relativePath})
	dg.handlers = append(dg.handlers, handlers)
	return dg
}

// Group creates a subgroup nested under this one
func (dg *DomainGroup) Group(prefix string) *DomainGroup {
	sub := NewDomainGroup(prefix)
	dg.subgroups = append(dg.subgroups, sub)
	return sub
}

// Prefix returns the group prefix
func (dg *DomainGroup) Prefix() string {
	return dg.prefix
}

// Routes lists the group's routes with paths relative to the group's parent
func (dg *DomainGroup) Routes() []Route {
	out := make([]Route, 0, len(dg.routes))
	for _, rt := range dg.routes {
		out = append(out, Route{Method: rt.Method, Path: path.Join(dg.prefix, rt.Path)})
	}
	for _, sub := range dg.subgroups {
		for _, rt := range sub.Routes() {
			out = append(out, Route{Method: rt.Method, Path: path.Join(dg.prefix, rt.Path)})
		}
	}
	return out
}

// RegisterRoutes implements RouteRegistrar
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix, dg.middleware...)
	for i, rt := range dg.routes {
		group.Handle(rt.Method, rt.Path, dg.handlers[i]...)
	}
	for _, sub := range dg.subgroups {
		sub.RegisterRoutes(group)
	}
}
