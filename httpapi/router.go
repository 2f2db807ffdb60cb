// Package httpapi exposes the friend graph over HTTP with chi.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/saulfrancisco-ruizacevedo/go-friendgraph"
	"github.com/saulfrancisco-ruizacevedo/go-friendgraph/observability"
	"github.com/saulfrancisco-ruizacevedo/go-friendgraph/traversal"
)

// Options tune the router. The zero value is usable.
type Options struct {
	// CORSOrigins lists allowed origins. Empty allows any origin.
	CORSOrigins []string
	// RequestTimeout bounds each request's context. Zero disables it.
	RequestTimeout time.Duration
	// Metrics enables request metrics and GET /metrics when set.
	Metrics *observability.Collector
}

// Server holds the dependencies shared by the handlers.
type Server struct {
	store    friendgraph.Store
	engine   *traversal.Engine
	logger   *zap.Logger
	validate *validator.Validate
	opts     Options
}

// NewServer returns a server answering from store.
func NewServer(store friendgraph.Store, logger *zap.Logger, opts Options) *Server {
	return &Server{
		store:    store,
		engine:   traversal.NewEngine(store, logger),
		logger:   logger,
		validate: validator.New(),
		opts:     opts,
	}
}

// Router builds the HTTP handler with middleware and every route mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	if s.opts.Metrics != nil {
		r.Use(metricsMiddleware(s.opts.Metrics))
	}

	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Get("/ready", s.ready)
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		if s.opts.RequestTimeout > 0 {
			r.Use(middleware.Timeout(s.opts.RequestTimeout))
		}

		r.Post("/users", s.createUser)
		r.Get("/users", s.listUsers)
		r.Delete("/users/{name}", s.deleteUser)

		r.Post("/friendship", s.createFriendship)
		r.Delete("/friendship/{user1}/{user2}", s.deleteFriendship)

		r.Get("/friends/{name}", s.friends)
		r.Get("/graph", s.graph)
		r.Get("/path", s.path)
	})

	return r
}
