package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/taskdash/taskdash-api/internal/middleware"
	"github.com/taskdash/taskdash-api/pkg/logger"
)

// Handler registers its routes on a group. Every resource handler
// satisfies this so the router stays ignorant of their internals.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Config struct {
	RateLimit rate.Limit
	RateBurst int
	CacheTTL  time.Duration
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	healthH  Handler
	authH    Handler
	userH    Handler
	taskH    Handler
	meetingH Handler
	emailH   Handler
	config   Config
}

func NewRouter(
	lg *logger.Logger,
	auth *middleware.AuthMiddleware,
	healthH Handler,
	authH Handler,
	userH Handler,
	taskH Handler,
	meetingH Handler,
	emailH Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	registerValidations()

	engine := gin.New()
	engine.Use(
		middleware.Recovery(lg),
		middleware.RequestID(),
		middleware.RequestLogger(lg),
	)

	if config.RateLimit > 0 {
		engine.Use(middleware.RateLimit(config.RateLimit, config.RateBurst))
	}

	return &Router{
		engine:   engine,
		auth:     auth,
		healthH:  healthH,
		authH:    authH,
		userH:    userH,
		taskH:    taskH,
		meetingH: meetingH,
		emailH:   emailH,
		config:   config,
	}
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	// Public routes
	r.healthH.RegisterRoutes(api)
	r.authH.RegisterRoutes(api)

	// Protected routes
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	if r.config.CacheTTL > 0 {
		protected.Use(middleware.ResponseCache(r.config.CacheTTL))
	}
	r.userH.RegisterRoutes(protected)
	r.taskH.RegisterRoutes(protected)
	r.meetingH.RegisterRoutes(protected)
	r.emailH.RegisterRoutes(protected)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
