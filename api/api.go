package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xraph/cronlock"
	"github.com/xraph/cronlock/engine"
)

// API serves the admin routes for one engine.
type API struct {
	eng    *engine.Engine
	logger *slog.Logger
}

// Option configures an API.
type Option func(*API)

// WithLogger sets the logger used for internal errors.
func WithLogger(l *slog.Logger) Option {
	return func(a *API) { a.logger = l }
}

// New creates an API over eng.
func New(eng *engine.Engine, opts ...Option) *API {
	a := &API{eng: eng, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handler returns a gin engine with recovery and every route registered.
func (a *API) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())
	a.RegisterRoutes(router)
	return router
}

// RegisterRoutes registers the admin routes on router.
func (a *API) RegisterRoutes(router gin.IRouter) {
	g := router.Group("/v1")
	g.GET("/health", a.health)
	g.GET("/crons", a.listCrons)
	g.GET("/crons/:alias", a.getCron)
	g.GET("/locks/:resource", a.getLock)
	g.GET("/runs", a.listRuns)
}

// fail writes err with a status derived from its sentinel.
func (a *API) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if isNotFound(err) {
		status = http.StatusNotFound
	} else {
		a.logger.Error("admin api error",
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()),
		)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error()})
}

func isNotFound(err error) bool {
	return errors.Is(err, cronlock.ErrJobNotFound) ||
		errors.Is(err, cronlock.ErrLockNotFound) ||
		errors.Is(err, cronlock.ErrRunNotFound)
}
