package router

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar registers a handler's routes on a group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router wires handlers into the versioned API. Registrars added with
// Register sit behind the protected middleware chain; public registrars
// are reachable without authentication.
type Router struct {
	engine     *gin.Engine
	apiVersion string
	protected  []gin.HandlerFunc
	registrars []RouteRegistrar
	public     []RouteRegistrar
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// WithProtection sets the middleware applied to protected routes
func WithProtection(middleware ...gin.HandlerFunc) RouterOption {
	return func(r *Router) {
		r.protected = middleware
	}
}

// NewRouter creates a new Router
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a protected registrar
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// RegisterPublic adds a registrar outside the protection chain
func (r *Router) RegisterPublic(registrar RouteRegistrar) *Router {
	r.public = append(r.public, registrar)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)

	for _, registrar := range r.public {
		registrar.RegisterRoutes(api)
	}

	secured := r.engine.Group("/api/"+r.apiVersion, r.protected...)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(secured)
	}
}
