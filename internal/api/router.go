package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/storefront-labs/storefront-api/docs"
	"github.com/storefront-labs/storefront-api/internal/api/handler"
	"github.com/storefront-labs/storefront-api/internal/api/middleware"
	"github.com/storefront-labs/storefront-api/internal/core/domain"
	"github.com/storefront-labs/storefront-api/internal/core/ports"
)

// Dependencies are the services and probes the HTTP layer is built on.
type Dependencies struct {
	Auth   ports.AuthService
	Orders ports.OrderService
	Users  ports.UserService

	// Checkers are pinged by the readiness probe.
	Checkers []handler.DependencyChecker

	Log zerolog.Logger

	// Registerer and Gatherer back the HTTP request metrics and /metrics.
	// They default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	if deps.Registerer == nil {
		deps.Registerer = prometheus.DefaultRegisterer
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "storefront",
		Registerer: deps.Registerer,
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth, deps.Users)
	orderHandler := handler.NewOrderHandler(deps.Orders)
	userHandler := handler.NewUserHandler(deps.Users)

	authenticated := middleware.RequireAuthentication(deps.Auth)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)

	// --- Auth routes ---
	auth := e.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/signup", authHandler.Signup)
	auth.GET("/me", authHandler.Me, authenticated, middleware.LoadUser(deps.Auth))
	auth.PUT("/me", authHandler.UpdateMe, authenticated)
	auth.POST("/logout", authHandler.Logout, authenticated)

	// --- Order routes ---
	orders := e.Group("/orders", authenticated)
	orders.POST("", orderHandler.Create)
	orders.GET("/mine", orderHandler.ListMine)
	orders.GET("/:id", orderHandler.Get)
	orders.GET("", orderHandler.List, adminOnly)
	orders.PUT("/:id/status", orderHandler.UpdateStatus, adminOnly)

	// --- User administration ---
	users := e.Group("/users", authenticated, adminOnly)
	users.POST("", userHandler.Create)
	users.GET("", userHandler.List)
	users.DELETE("/:id", userHandler.Delete)

	// --- Health probes (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewHealthDependenciesHandler(deps.Checkers...).Readiness)

	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Gatherer}))
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
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= 500 {
				evt = log.Error().Err(v.Error)
			}
			evt.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
