// Package server assembles the echo application: middleware, JWT
// guard, and route registration.
package server

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/spendlens/spendlens/internal/auth"
	"github.com/spendlens/spendlens/internal/handlers"
)

type Server struct {
	echo   *echo.Echo
	addr   string
	logger *slog.Logger
}

func NewServer(
	log *slog.Logger,
	addr string,
	jwtSecret string,
	pingHandler *handlers.PingHandler,
	formHandler *handlers.FormHandler,
	reportHandler *handlers.ReportHandler,
) *Server {
	if addr == "" {
		addr = ":8080"
	}
	logger := log.With(slog.String("service", "server"))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
			)
			return nil
		},
	}))
	e.Use(auth.JWTMiddleware(jwtSecret, func(c echo.Context) bool {
		path := c.Request().URL.Path
		return path == "/ping" || path == "/health"
	}))

	if pingHandler != nil {
		pingHandler.Register(e)
	}
	if formHandler != nil {
		formHandler.Register(e)
	}
	if reportHandler != nil {
		reportHandler.Register(e)
	}

	return &Server{
		echo:   e,
		addr:   addr,
		logger: logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("http server listening", slog.String("addr", s.addr))
	return s.echo.Start(s.addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Echo exposes the underlying router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
