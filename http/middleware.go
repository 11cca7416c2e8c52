package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/kdelacruz/bantay"
	internalmw "github.com/kdelacruz/bantay/internal/middleware"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	// Identity headers set by the upstream gateway. The back office trusts
	// them; authentication itself happens before requests reach us.
	HeaderOfficerID   = "X-Officer-Id"
	HeaderOfficerRole = "X-Officer-Role"
	HeaderOfficerName = "X-Officer-Name"

	// Default timeout for database operations.
	DefaultTimeout = 5 * time.Second
)

// registerMiddleware sets up all middleware for the server.
func (s *Server) registerMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Request ID middleware with request-scoped logger
	s.echo.Use(internalmw.RequestIDMiddleware(s.logger))

	// Prometheus metrics
	s.echo.Use(internalmw.MetricsMiddleware())

	// Per-IP rate limiting
	s.echo.Use(s.rateLimiter.Middleware())

	// Logger middleware with request ID
	s.echo.Use(s.requestLoggerMiddleware())

	// CORS middleware (configure as needed)
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, HeaderOfficerID, HeaderOfficerRole, HeaderOfficerName},
	}))

	// Custom error handler
	s.echo.HTTPErrorHandler = s.httpErrorHandler
}

// requestLoggerMiddleware creates a middleware that logs requests with context.
func (s *Server) requestLoggerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			logger := s.getRequestLogger(c).With(
				slog.String("method", c.Request().Method),
				slog.String("path", c.Path()),
			)

			// Log request completion
			duration := time.Since(start)
			status := c.Response().Status

			logAttrs := []any{
				slog.Int("status", status),
				slog.Duration("duration", duration),
			}

			if err != nil {
				logAttrs = append(logAttrs, slog.String("error", err.Error()))
				logger.Error("request failed", logAttrs...)
			} else if status >= 500 {
				logger.Error("request completed with server error", logAttrs...)
			} else if status >= 400 {
				logger.Warn("request completed with client error", logAttrs...)
			} else {
				logger.Info("request completed", logAttrs...)
			}

			return err
		}
	}
}

// httpErrorHandler handles errors and returns appropriate responses.
func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	// Check if it's an Echo HTTP error
	if he, ok := err.(*echo.HTTPError); ok {
		msg := he.Message
		if m, ok := msg.(string); ok {
			_ = c.JSON(he.Code, ErrorResponse{Error: "http_error", Message: m})
		} else {
			_ = c.JSON(he.Code, map[string]any{"error": msg})
		}
		return
	}

	// Handle domain errors
	_ = HandleError(c, s.logger, err)
}

// OfficerMiddleware reads the gateway identity headers and attaches the
// officer to the request context. If required is true, requests without a
// valid identity get 401.
func (s *Server) OfficerMiddleware(required bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			logger := s.getRequestLogger(c)

			idStr := c.Request().Header.Get(HeaderOfficerID)
			if idStr == "" {
				if required {
					logger.Debug("officer identity required but header missing")
					return bantay.Unauthorized("Officer identity required")
				}
				return next(c)
			}

			id, err := parseUUID(idStr)
			if err != nil {
				if required {
					return bantay.Unauthorized("Invalid officer identity")
				}
				return next(c)
			}

			role := bantay.OfficerRole(c.Request().Header.Get(HeaderOfficerRole))
			if role != bantay.OfficerRoleAdmin {
				role = bantay.OfficerRoleEnforcer
			}

			officer := &bantay.Officer{
				ID:   id,
				Name: c.Request().Header.Get(HeaderOfficerName),
				Role: role,
			}

			// Attach officer to context
			ctx := bantay.NewContextWithOfficer(c.Request().Context(), officer)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("officer", officer)

			return next(c)
		}
	}
}

// RequireOfficer is a middleware that requires an officer identity.
func (s *Server) RequireOfficer() echo.MiddlewareFunc {
	return s.OfficerMiddleware(true)
}

// getRequestLogger retrieves the request-scoped logger from context.
func (s *Server) getRequestLogger(c echo.Context) *slog.Logger {
	if logger, ok := c.Get("logger").(*slog.Logger); ok {
		return logger
	}
	return s.logger
}
