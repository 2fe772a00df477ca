package router

import (
	"github.com/gin-gonic/gin"
	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/infrastructure/auth"
	"github.com/tradeflow/backend/internal/infrastructure/config"
	"github.com/tradeflow/backend/internal/infrastructure/logger"
	"github.com/tradeflow/backend/internal/interfaces/http/handler"
	"github.com/tradeflow/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Paths excluded from tracing, request logs and profiling labels
var healthPaths = []string{"/health", "/health/ready"}

// Handlers are the endpoint handlers mounted by NewEngine
type Handlers struct {
	Trade      *handler.TradeHandler
	Compliance *handler.ComplianceHandler
	Finance    *handler.FinanceHandler
	Payment    *handler.PaymentHandler
	Proof      *handler.ProofHandler
	Audit      *handler.AuditHandler
	System     *handler.SystemHandler
}

// EngineConfig wires the cross-cutting middleware. Nil dependencies
// switch the matching middleware off: no JWT service means no
// authentication, no idempotency store means Idempotency-Key is ignored.
type EngineConfig struct {
	ServiceName      string
	HTTP             config.HTTPConfig
	Logger           *zap.Logger
	Meter            metric.Meter
	TracerProvider   trace.TracerProvider
	ProfilingEnabled bool
	JWT              *auth.JWTService
	Revocations      auth.RevocationList
	Idempotency      shared.IdempotencyStore
}

// NewEngine builds the gin engine with the middleware chain and every
// route of the trade API.
func NewEngine(cfg EngineConfig, h Handlers) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, err
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName:    cfg.ServiceName,
			TracerProvider: cfg.TracerProvider,
			SkipPaths:      healthPaths,
		}),
		middleware.SpanEnricher(),
		logger.GinMiddleware(log, logger.WithSkipPaths(healthPaths...)),
		middleware.HTTPMetrics(cfg.Meter, log),
		middleware.Profiling(cfg.ProfilingEnabled, healthPaths...),
		middleware.CORS(cors),
		middleware.Secure(),
	)
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}
	if cfg.HTTP.RateLimitEnabled {
		engine.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)))
	}

	engine.GET("/health", h.System.Health)
	engine.GET("/health/ready", h.System.Ready)

	var opts []RouterOption
	if cfg.JWT != nil {
		opts = append(opts, WithMiddleware(middleware.JWTAuth(middleware.JWTConfig{
			Service:     cfg.JWT,
			Revocations: cfg.Revocations,
			Logger:      log,
		})))
	}
	guard := mutationGuard(cfg, log)

	r := NewRouter(engine, opts...)
	r.Register(tradeRoutes(h, guard)).
		Register(NewDomainGroup("/workflow").
			GET("/:stage/eligible", h.Trade.ListEligible)).
		Register(NewDomainGroup("/compliance").
			GET("/runs", h.Compliance.ListRecent)).
		Register(NewDomainGroup("/finance").
			GET("/offers", h.Finance.ListRecent).
			POST("/offers/:offerId/accept", guard(auth.ScopeWorkflowRun, h.Finance.AcceptOffer)...)).
		Register(NewDomainGroup("/payments").
			GET("", h.Payment.ListRecent).
			GET("/:id", h.Payment.GetByID)).
		Register(NewDomainGroup("/proofs").
			GET("", h.Proof.ListRecent).
			GET("/verify", h.Proof.Verify).
			GET("/:id", h.Proof.GetByID).
			GET("/:id/archive", h.Proof.ArchiveLink).
			GET("/:id/artifacts/:artifactId/proof", h.Proof.InclusionProof)).
		Register(NewDomainGroup("/audit-events").
			GET("", h.Audit.List))
	r.Setup()

	return engine, nil
}

func tradeRoutes(h Handlers, guard func(string, gin.HandlerFunc) []gin.HandlerFunc) *DomainGroup {
	return NewDomainGroup("/trades").
		POST("", guard(auth.ScopeTradesWrite, h.Trade.Create)...).
		GET("", h.Trade.List).
		GET("/:id", h.Trade.GetByID).
		POST("/:id/compliance", guard(auth.ScopeWorkflowRun, h.Compliance.Run)...).
		GET("/:id/compliance", h.Compliance.ListByTrade).
		POST("/:id/finance/offers", guard(auth.ScopeWorkflowRun, h.Finance.GenerateOffers)...).
		GET("/:id/finance/offers", h.Finance.ListByTrade).
		POST("/:id/payments", guard(auth.ScopeWorkflowRun, h.Payment.Execute)...).
		POST("/:id/proofs", guard(auth.ScopeWorkflowRun, h.Proof.Generate)...)
}

// mutationGuard returns the handler chain for a state-changing route: the
// scope check when authentication is on, then idempotent replay.
func mutationGuard(cfg EngineConfig, log *zap.Logger) func(scope string, h gin.HandlerFunc) []gin.HandlerFunc {
	var idempotency gin.HandlerFunc
	if cfg.Idempotency != nil {
		idempotency = middleware.Idempotency(middleware.IdempotencyConfig{
			Store:  cfg.Idempotency,
			TTL:    cfg.HTTP.IdempotencyTTL,
			Logger: log,
		})
	}

	return func(scope string, h gin.HandlerFunc) []gin.HandlerFunc {
		chain := make([]gin.HandlerFunc, 0, 3)
		if cfg.JWT != nil {
			chain = append(chain, middleware.RequireScope(scope))
		}
		if idempotency != nil {
			chain = append(chain, idempotency)
		}
		return append(chain, h)
	}
}
