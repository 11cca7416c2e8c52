package middleware

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/kdelacruz/bantay"
	"github.com/labstack/echo/v4"
)

// RequestIDMiddleware tags every request with a unique ID, puts it in the
// response header, the Echo context, and the request context, and derives a
// request-scoped logger carrying the ID.
func RequestIDMiddleware(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := uuid.New().String()

			c.Response().Header().Set(echo.HeaderXRequestID, requestID)
			c.Set("request_id", requestID)

			requestLogger := logger.With(slog.String("request_id", requestID))
			c.Set("logger", requestLogger)

			// Propagate into the request context so engines and stores
			// downstream can correlate.
			ctx := bantay.NewContextWithRequestID(c.Request().Context(), requestID)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// GetRequestID retrieves the request ID from the Echo context.
func GetRequestID(c echo.Context) string {
	requestID, ok := c.Get("request_id").(string)
	if !ok {
		return ""
	}
	return requestID
}

// GetRequestLogger retrieves the request-scoped logger from the Echo context.
func GetRequestLogger(c echo.Context) *slog.Logger {
	logger, ok := c.Get("logger").(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}
