// Package server assembles the HTTP surface: an echo instance with
// recovery, CORS, rate limiting and request logging, plus the v1 API routes.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/vendora/vendora/internal/profile"
	"github.com/vendora/vendora/internal/observability"
	"github.com/vendora/vendora/server/middleware"
	apiv1 "github.com/vendora/vendora/server/router/api/v1"
	"github.com/vendora/vendora/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
}

func NewServer(_ context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(middleware.NewRateLimiter().Middleware())
	e.Use(requestLogger())

	s := &Server{
		Profile:    profile,
		Store:      store,
		echoServer: e,
	}

	apiv1.NewAPIV1Service(profile, store).RegisterRoutes(e)

	e.GET("/healthz", func(c echo.Context) error {
		if err := store.Ping(c.Request().Context()); err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "database unreachable").SetInternal(err)
		}
		return c.String(http.StatusOK, "ok")
	})

	return s, nil
}

func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server started", "address", address, "mode", s.Profile.Mode)
	if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "failed to start echo server")
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	// Closing the store stops the cache janitor and the database driver.
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}

	slog.Info("server shutdown complete")
}

// requestLogger tags every request with an id and logs it on completion.
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := observability.NewRequestID()
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			slog.Info("request",
				observability.LogFieldRequestID, requestID,
				observability.LogFieldMethod, c.Request().Method,
				observability.LogFieldPath, c.Request().URL.Path,
				observability.LogFieldStatus, c.Response().Status,
				observability.LogFieldDuration, time.Since(start).Milliseconds(),
			)
			return err
		}
	}
}
