package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"contracts-backend/internal/clients"
	"contracts-backend/internal/contracts"
	"contracts-backend/internal/dashboard"
	"contracts-backend/internal/documents"
	"contracts-backend/internal/services/health"
	"contracts-backend/internal/shared/config"
	"contracts-backend/internal/shared/metrics"
	"contracts-backend/internal/shared/server/middleware"
	"contracts-backend/internal/shared/server/respond"
)

const (
	rateLimitWrite = "DEFAULT"
	rateLimitRead  = "READ"
	// reads get this multiple of the configured write budget
	readBudgetFactor = 5
)

// RouterDeps carries the handlers mounted by NewRouter.
type RouterDeps struct {
	Config           config.Config
	ContractHandler  *contracts.Handler
	DocumentHandler  *documents.Handler
	ClientHandler    *clients.Handler
	DashboardHandler *dashboard.Handler
	Health           *health.Service
	Metrics          prometheus.Gatherer
	RateLimiter      *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	cfg := deps.Config

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
	)

	healthHandler := func(c *gin.Context) {
		if deps.Health == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
			return
		}
		report := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	}
	r.GET("/health", healthHandler)
	if deps.Metrics != nil {
		r.GET("/metrics", metrics.Handler(deps.Metrics))
	}

	api := r.Group("/api/v1")
	api.GET("/health", healthHandler)

	authed := api.Group("")
	authed.Use(
		middleware.Auth(cfg.Env),
		middleware.RateLimit(rateLimitConfig(cfg, deps.RateLimiter)),
	)
	registerMeRoutes(authed)
	if deps.ContractHandler != nil {
		deps.ContractHandler.RegisterRoutes(authed)
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(authed)
	}
	if deps.ClientHandler != nil {
		deps.ClientHandler.RegisterRoutes(authed)
	}
	if deps.DashboardHandler != nil {
		deps.DashboardHandler.RegisterRoutes(authed)
	}

	return r
}

func rateLimitConfig(cfg config.Config, limiter *middleware.RateLimiter) middleware.RateLimitConfig {
	rules := map[string]middleware.RateLimitRule{}
	if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst > 0 {
		rules[rateLimitWrite] = middleware.RateLimitRule{Rate: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst}
		rules[rateLimitRead] = middleware.RateLimitRule{
			Rate:  cfg.RateLimitRPS * readBudgetFactor,
			Burst: cfg.RateLimitBurst * readBudgetFactor,
		}
	}
	return middleware.RateLimitConfig{
		Rules:        rules,
		DefaultGroup: rateLimitWrite,
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
				return rateLimitRead
			}
			return rateLimitWrite
		},
		Limiter: limiter,
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
