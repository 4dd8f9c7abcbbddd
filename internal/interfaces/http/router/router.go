// Package router mounts the API groups under a versioned prefix and keeps a
// catalogue of what was mounted.
package router

import (
	"net/http"
	"path"

	"github.com/Oscarts/backery2-app-sub003/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// Router mounts DomainGroups on an engine
type Router struct {
	engine     *gin.Engine
	apiVersion string
	middleware []gin.HandlerFunc
	groups     []*DomainGroup
	catalogue  []handler.RouteInfo
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithAPIVersion sets the version segment of the prefix, "v1" by default
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) { r.apiVersion = version }
}

// NewRouter creates a Router
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use adds middleware in front of every versioned route
func (r *Router) Use(middleware ...gin.HandlerFunc) *Router {
	r.middleware = append(r.middleware, middleware...)
	return r
}

// Register queues a group for Setup
func (r *Router) Register(group *DomainGroup) *Router {
	r.groups = append(r.groups, group)
	return r
}

// Setup mounts every registered group under /api/{version}
func (r *Router) Setup() {
	base := "/api/" + r.apiVersion
	api := r.engine.Group(base, r.middleware...)
	for _, g := range r.groups {
		r.catalogue = g.mount(api, base, r.catalogue)
	}
}

// Routes lists the mounted routes in registration order. It is empty before
// Setup.
func (r *Router) Routes() []handler.RouteInfo {
	return append([]handler.RouteInfo(nil), r.catalogue...)
}

// DomainGroup is a named set of routes sharing a prefix and middleware
type DomainGroup struct {
	name       string
	prefix     string
	middleware []gin.HandlerFunc
	routes     []route
	children   []*DomainGroup
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewDomainGroup creates a DomainGroup
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Use adds middleware to the group and its children
func (g *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	g.middleware = append(g.middleware, middleware...)
	return g
}

// GET adds a GET route
func (g *DomainGroup) GET(p string, handlers ...gin.HandlerFunc) *DomainGroup {
	g.routes = append(g.routes, route{http.MethodGet, p, handlers})
	return g
}

// POST adds a POST route
func (g *DomainGroup) POST(p string, handlers ...gin.HandlerFunc) *DomainGroup {
	g.routes = append(g.routes, route{http.MethodPost, p, handlers})
	return g
}

// Group adds a nested group
func (g *DomainGroup) Group(name, prefix string) *DomainGroup {
	child := NewDomainGroup(name, prefix)
	g.children = append(g.children, child)
	return child
}

func (g *DomainGroup) mount(parent *gin.RouterGroup, parentPath string, catalogue []handler.RouteInfo) []handler.RouteInfo {
	rg := parent.Group(g.prefix, g.middleware...)
	full := path.Join(parentPath, g.prefix)
	for _, rt := range g.routes {
		rg.Handle(rt.method, rt.path, rt.handlers...)
		catalogue = append(catalogue, handler.RouteInfo{
			Group:  g.name,
			Method: rt.method,
			Path:   full + rt.path,
		})
	}
	for _, child := range g.children {
		catalogue = child.mount(rg, full, catalogue)
	}
	return catalogue
}
