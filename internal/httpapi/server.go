// Package httpapi exposes the auth engine over HTTP. Tokens travel in
// cookies; request and response bodies are JSON except for the QR
// enrollment image.
package httpapi

import (
	"context"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/manfra-io/marketauth"
	"github.com/manfra-io/marketauth/internal/observability"
)

// HealthCheck probes a backing service; nil means healthy.
type HealthCheck func(ctx context.Context) error

// Server bundles the handler dependencies.
type Server struct {
	engine *marketauth.Engine
	logger *observability.Logger
	checks map[string]HealthCheck
}

func NewServer(engine *marketauth.Engine, logger *observability.Logger) *Server {
	return &Server{
		engine: engine,
		logger: logger,
		checks: make(map[string]HealthCheck),
	}
}

// AddHealthCheck registers a named backend probe for the health endpoint.
func (s *Server) AddHealthCheck(name string, check HealthCheck) {
	s.checks[name] = check
}

// Routes registers the auth surface on e.
func (s *Server) Routes(e *echo.Echo) {
	e.Use(echomw.Recover())
	e.Use(s.requestLogger())

	e.GET("/healthz", s.Health)

	auth := e.Group("/auth")
	auth.POST("/register", s.Register)
	auth.POST("/login", s.Login, s.loginThrottle())
	auth.POST("/login/2fa", s.LoginTOTP, s.loginThrottle())
	auth.POST("/refresh-token", s.Refresh)

	// Logout and enrollment require an authenticated session.
	auth.GET("/logout", s.Logout, s.RequireAuth)
	auth.GET("/2fa/generate", s.GenerateTOTP, s.RequireAuth)
	auth.POST("/2fa/validate", s.ValidateTOTP, s.RequireAuth)
}
