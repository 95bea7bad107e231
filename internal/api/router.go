package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	_ "github.com/twinmarket/twin-api/docs"
	"github.com/twinmarket/twin-api/internal/api/handler"
	"github.com/twinmarket/twin-api/internal/api/middleware"
	"github.com/twinmarket/twin-api/internal/core/ports"
)

const serviceName = "twin-api"

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	Sessions      ports.SessionService
	Authenticator ports.Authenticator
	Codec         ports.TokenCodec
	Policy        ports.AccessPolicy
	Webhooks      ports.WebhookService
	Verifier      ports.WebhookVerifier
	Dedup         handler.Deduplicator
	Readiness     map[string]handler.Pinger
	AllowOrigins  []string
	Log           zerolog.Logger

	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(otelecho.Middleware(serviceName))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "twin",
		Registerer: deps.Registerer,
	}))
	if len(deps.AllowOrigins) > 0 {
		e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOrigins:     deps.AllowOrigins,
			AllowCredentials: true,
		}))
	}

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Sessions, deps.Authenticator, deps.Log)
	userHandler := handler.NewUserHandler(deps.Authenticator)
	webhookHandler := handler.NewWebhookHandler(deps.Verifier, deps.Webhooks, deps.Dedup, deps.Log)

	// --- API routes, behind the session gate ---
	apiGroup := e.Group("/api", middleware.Gate(middleware.GateConfig{
		Codec:   deps.Codec,
		Policy:  deps.Policy,
		Skipper: middleware.PublicSkipper,
	}))

	apiGroup.POST("/auth/sign-in/farcaster", authHandler.SignInFarcaster)
	apiGroup.POST("/auth/sign-in/wallet", authHandler.SignInWallet)
	apiGroup.POST("/auth/logout", authHandler.Logout)
	apiGroup.GET("/auth/check", authHandler.Check, middleware.Gate(middleware.GateConfig{
		Codec:    deps.Codec,
		Policy:   deps.Policy,
		Optional: true,
	}))

	apiGroup.GET("/users/me", userHandler.Me)
	apiGroup.GET("/users/me/wallets", userHandler.Wallets)

	apiGroup.POST("/webhook/farcaster", webhookHandler.Farcaster)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Readiness)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	// --- Operational ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: deps.Gatherer,
	}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
