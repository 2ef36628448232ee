package http

import (
	"log/slog"

	"github.com/geocoder89/userhub/internal/auth"
	"github.com/geocoder89/userhub/internal/config"
	"github.com/geocoder89/userhub/internal/http/handlers"
	"github.com/geocoder89/userhub/internal/http/middlewares"
	"github.com/geocoder89/userhub/internal/observability"
	"github.com/geocoder89/userhub/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps are the collaborators the router wires into handlers. Prom,
// Registry, Ping and RateStore are optional.
type Deps struct {
	Accounts  handlers.Accounts
	Sessions  *session.Store
	Tokens    *auth.Manager
	Prom      *observability.Prom
	Registry  prometheus.Gatherer
	Ping      func() error
	RateStore middlewares.WindowStore
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env != "dev" && cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigin))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))

	// health
	h := handlers.NewHealthHandler(deps.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	rateStore := deps.RateStore
	if rateStore == nil {
		rateStore = middlewares.NewMemoryWindowStore()
	}
	loginLimiter := middlewares.NewRateLimiter(rateStore, "rl:login:", cfg.LoginRateLimit, cfg.LoginRateWindow)
	registerLimiter := middlewares.NewRateLimiter(rateStore, "rl:register:", cfg.LoginRateLimit, cfg.LoginRateWindow)

	authHandler := handlers.NewAuthHandler(deps.Accounts, deps.Sessions, deps.Tokens, deps.Prom, log)
	usersHandler := handlers.NewUsersHandler(deps.Accounts, log)

	requireSession := middlewares.NewSessionAuth(deps.Sessions, deps.Prom).RequireSession()
	requireBearer := middlewares.NewBearerAuth(deps.Tokens, deps.Prom).RequireBearer()

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", registerLimiter.RateLimiterMiddleware(middlewares.KeyByIP), middlewares.RequireJSON(), authHandler.Register)
	authGroup.POST("/login", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), middlewares.RequireJSON(), authHandler.Login)
	authGroup.DELETE("/logout", authHandler.Logout)
	authGroup.POST("/token", requireSession, authHandler.IssueToken)

	api.GET("/user/:user_id", requireSession, usersHandler.GetUser)

	// same lookup for API clients holding a bearer token instead of a cookie
	api.GET("/token/user/:user_id", requireBearer, usersHandler.GetUser)

	return r
}
