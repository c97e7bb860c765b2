package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/steemit/tweetstore/internal/reply"
	"github.com/steemit/tweetstore/internal/store"
	"github.com/steemit/tweetstore/pkg/logging"
)

// HealthChecker reports whether a backing service is reachable
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Router sets up API routes
type Router struct {
	handler  *JSONRPCHandler
	store    *store.Guarded
	replies  *reply.Service
	saver    Saver
	defaults ReplyDefaults
	checks   map[string]HealthChecker
	logger   *zap.Logger
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithSaver enables posts.save
func WithSaver(saver Saver) RouterOption {
	return func(r *Router) {
		r.saver = saver
	}
}

// WithReplyDefaults sets the API key, model and timeout used by reply.generate
func WithReplyDefaults(defaults ReplyDefaults) RouterOption {
	return func(r *Router) {
		r.defaults = defaults
	}
}

// WithHealthCheck adds a named dependency to the health endpoints
func WithHealthCheck(name string, check HealthChecker) RouterOption {
	return func(r *Router) {
		r.checks[name] = check
	}
}

// NewRouter creates a new API router
func NewRouter(s *store.Guarded, replies *reply.Service, opts ...RouterOption) *Router {
	router := &Router{
		handler: NewJSONRPCHandler(),
		store:   s,
		replies: replies,
		checks:  make(map[string]HealthChecker),
		logger:  logging.WithComponent("api-router"),
	}
	for _, opt := range opts {
		opt(router)
	}

	router.registerMethods()

	return router
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.Use(RequestID())

	// Health check endpoints
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)

	// JSON-RPC endpoint
	engine.POST("/", r.handler.Handle)
}

// registerMethods registers all API methods
func (r *Router) registerMethods() {
	posts := NewPostsAPI(r.store, r.saver)

	r.handler.RegisterMethod("posts.get", posts.Get)
	r.handler.RegisterMethod("posts.replies", posts.Replies)
	r.handler.RegisterMethod("posts.quotes", posts.Quotes)
	r.handler.RegisterMethod("posts.thread", posts.Thread)
	r.handler.RegisterMethod("posts.subtree_ids", posts.SubtreeIDs)
	r.handler.RegisterMethod("posts.list", posts.List)
	r.handler.RegisterMethod("posts.insert", posts.Insert)
	r.handler.RegisterMethod("posts.update", posts.Update)
	r.handler.RegisterMethod("posts.delete", posts.Delete)
	r.handler.RegisterMethod("posts.delete_subtree", posts.DeleteSubtree)
	r.handler.RegisterMethod("posts.replace_all", posts.ReplaceAll)
	r.handler.RegisterMethod("posts.save", posts.Save)

	if r.replies != nil {
		replies := NewReplyAPI(r.replies, r.store, r.defaults)
		r.handler.RegisterMethod("reply.generate", replies.Generate)
	}

	r.handler.RegisterMethod("tweetstore.status", r.status)

	r.logger.Debug("JSON-RPC methods registered", zap.Strings("methods", r.handler.Methods()))
}

// healthHandler handles health check requests
func (r *Router) healthHandler(c *gin.Context) {
	status := http.StatusOK
	deps := make(gin.H, len(r.checks))
	for name, check := range r.checks {
		if err := check.Health(c.Request.Context()); err != nil {
			r.logger.Warn("Health check failed", zap.String("dependency", name), zap.Error(err))
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "OK"
	}

	body := gin.H{
		"status":  "OK",
		"service": "tweetstore-api",
	}
	if status != http.StatusOK {
		body["status"] = "DEGRADED"
	}
	if len(deps) > 0 {
		body["dependencies"] = deps
	}
	c.JSON(status, body)
}

// status returns the collection size
func (r *Router) status(c *gin.Context, params json.RawMessage) (interface{}, error) {
	return gin.H{
		"posts":     r.store.Len(),
		"persisted": r.saver != nil,
	}, nil
}
