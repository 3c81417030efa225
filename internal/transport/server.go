// Package transport implements the Transport Surface (spec.md §4.J): the
// HTTP endpoints enumerated in §6, request validation, request-id
// tagging, the global per-request deadline, and the uniform error
// envelope, on top of gin following the teacher's middleware stack
// (api/server.go: ginzap logging/recovery, otelgin tracing, CORS).
package transport

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/aquaprotocol/rfq-issuer/internal/chains"
	"github.com/aquaprotocol/rfq-issuer/internal/orchestrator"
	"github.com/aquaprotocol/rfq-issuer/internal/pairs"
	"github.com/aquaprotocol/rfq-issuer/internal/strategy"
	"github.com/aquaprotocol/rfq-issuer/internal/tokens"
)

// Server wires the Quote Orchestrator and the admin-facing stores into a
// gin.Engine.
type Server struct {
	router        *gin.Engine
	logger        *zap.Logger
	orchestrator  *orchestrator.Orchestrator
	chains        *chains.Registry
	pairStore     pairs.Store
	strategyStore strategy.Store
	tokenStore    tokens.Store
	globalTimeout time.Duration
}

// Options configures Server construction beyond its required dependencies.
type Options struct {
	GlobalTimeout  time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	CORSOrigins    []string
}

func defaultOptions() Options {
	return Options{
		GlobalTimeout:  8 * time.Second,
		RateLimitRPS:   10,
		RateLimitBurst: 20,
		CORSOrigins:    []string{"*"},
	}
}

// NewServer builds the Server and registers all routes.
func NewServer(
	logger *zap.Logger,
	orch *orchestrator.Orchestrator,
	registry *chains.Registry,
	pairStore pairs.Store,
	strategyStore strategy.Store,
	tokenStore tokens.Store,
	opts Options,
) *Server {
	defaults := defaultOptions()
	if opts.GlobalTimeout == 0 {
		opts.GlobalTimeout = defaults.GlobalTimeout
	}
	if opts.RateLimitRPS == 0 {
		opts.RateLimitRPS = defaults.RateLimitRPS
	}
	if opts.RateLimitBurst == 0 {
		opts.RateLimitBurst = defaults.RateLimitBurst
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = defaults.CORSOrigins
	}

	// §4.J: unknown fields in a request body are rejected, not ignored.
	binding.EnableDecoderDisallowUnknownFields = true

	s := &Server{
		logger:        logger,
		orchestrator:  orch,
		chains:        registry,
		pairStore:     pairStore,
		strategyStore: strategyStore,
		tokenStore:    tokenStore,
		globalTimeout: opts.GlobalTimeout,
	}

	router := gin.New()
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))
	router.Use(otelgin.Middleware("aqua-rfq-issuer"))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     opts.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(requestIDMiddleware())
	router.NoRoute(notFoundHandler)

	limiter := newIPRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst)
	deadline := deadlineMiddleware(func(parent context.Context) (context.Context, context.CancelFunc) {
		return context.WithTimeout(parent, s.globalTimeout)
	})

	router.GET("/v1/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1", deadline)
	{
		v1.GET("/chains", s.handleListChains)
		v1.GET("/metadata", s.handleMetadata)
		v1.POST("/price", s.handlePrice)
		v1.POST("/quote", limiter.middleware(), s.handleQuote)
		v1.GET("/quotes/:quoteId", s.handleGetQuote)

		admin := v1.Group("/admin")
		{
			admin.GET("/pairs", s.handleListPairs)
			admin.POST("/pairs", s.handleUpsertPair)
			admin.GET("/strategies", s.handleListStrategies)
			admin.POST("/strategies", s.handleCreateStrategy)
			admin.POST("/strategies/:id/activate", s.handleActivateStrategy)
			admin.PUT("/config", s.handleUpdateConfig)
			admin.GET("/tokens", s.handleListTokens)
		}
	}

	s.router = router
	return s
}

// Router returns the underlying gin.Engine, for tests and for http.Server.
func (s *Server) Router() *gin.Engine {
	return s.router
}
