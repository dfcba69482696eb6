// Package httpserver exposes wizard sessions over a JSON API.
package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"subsidy-wizard/internal/common/logger"
	"subsidy-wizard/internal/wizard/steps"
	"subsidy-wizard/internal/wizard/tenant"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RepresentativeSource looks up the authorized representative the backend holds for a tenant.
type RepresentativeSource interface {
	GetAuthorizedRepresentative(ctx context.Context, id tenant.ID) (*tenant.Info, error)
}

// TenantSettings are the deployment inputs of tenant resolution.
type TenantSettings struct {
	Registry      tenant.Registry
	Configured    string
	AllowOverride bool
	Development   bool
}

type Deps struct {
	Sessions *Sessions
	Tokens   *TokenIssuer
	Tenants  TenantSettings
	// Representatives is optional; without it the tenant view comes from configuration only.
	Representatives RepresentativeSource
	Redis           Pinger
	AllowedOrigins  []string
	MaxUploadBytes  int64
	Now             func() time.Time
	Logger          logger.Logger
}

type Options struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server wraps the HTTP server setup.
type Server struct {
	httpServer *http.Server
	logger     logger.Logger
}

func New(opts Options, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              opts.Address,
			Handler:           NewRouter(deps),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       opts.ReadTimeout,
			WriteTimeout:      opts.WriteTimeout,
		},
		logger: deps.Logger,
	}
}

func (s *Server) Addr() string { return s.httpServer.Addr }

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// NewRouter wires routes for the API.
func NewRouter(deps Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = steps.MaxBankStatementSize
	}

	router := gin.New()
	router.MaxMultipartMemory = deps.MaxUploadBytes + multipartOverhead
	router.Use(requestLogger(deps.Logger), gin.Recovery())
	router.Use(cors.New(corsConfig(deps.AllowedOrigins)))

	h := &handlers{
		sessions:  deps.Sessions,
		tokens:    deps.Tokens,
		tenants:   deps.Tenants,
		reps:      deps.Representatives,
		maxUpload: deps.MaxUploadBytes,
		validator: steps.NewValidator(deps.Now),
		log:       deps.Logger,
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Redis))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.GET("/classification", h.classify)
	api.GET("/tenant", h.tenantInfo)
	api.POST("/sessions", h.createSession)

	current := api.Group("/sessions/current", h.sessionAuth())
	current.GET("", h.getSession)
	current.DELETE("", h.resetSession)
	current.PATCH("/fields", h.setField)
	current.PUT("/bank-statement", h.uploadBankStatement)
	current.DELETE("/bank-statement", h.removeBankStatement)
	current.PUT("/step", h.goToStep)
	current.POST("/next", h.next)
	current.POST("/back", h.back)
	current.POST("/sign", h.sign)
	current.GET("/export", h.export)

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	cfg.MaxAge = 12 * time.Hour
	return cfg
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func readyHandler(redis Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redis == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "redis not configured"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()
		if err := redis.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "redis not reachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
