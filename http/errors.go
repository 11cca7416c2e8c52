package http

import (
	"log/slog"
	"net/http"

	"github.com/kdelacruz/bantay"
	"github.com/labstack/echo/v4"
)

// errorStatusCode maps domain error codes to HTTP status codes.
func errorStatusCode(code string) int {
	switch code {
	case bantay.ENOTFOUND:
		return http.StatusNotFound
	case bantay.EINVALID:
		return http.StatusBadRequest
	case bantay.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case bantay.EFORBIDDEN:
		return http.StatusForbidden
	case bantay.ECONFLICT:
		return http.StatusConflict
	case bantay.ERATELIMIT:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse represents the JSON error response format.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// HandleError converts domain errors to appropriate HTTP responses.
// It logs internal errors and returns user-safe messages.
func HandleError(c echo.Context, logger *slog.Logger, err error) error {
	code := bantay.ErrorCode(err)
	message := bantay.ErrorMessage(err)
	fields := bantay.ErrorFields(err)
	status := errorStatusCode(code)

	// Log internal errors with full details
	if code == bantay.EINTERNAL {
		logger.Error("internal error",
			slog.String("error", err.Error()),
			slog.String("path", c.Path()),
			slog.String("method", c.Request().Method),
		)
		// Don't expose internal error details to clients
		message = "An internal error occurred."
	}

	return c.JSON(status, ErrorResponse{
		Error:   code,
		Message: message,
		Fields:  fields,
	})
}

// ErrorHandlerMiddleware provides centralized error handling.
// It converts domain errors to appropriate HTTP responses.
func ErrorHandlerMiddleware(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			// Check if it's already an Echo HTTP error
			if he, ok := err.(*echo.HTTPError); ok {
				if he.Code >= 500 {
					logger.Error("http error",
						slog.Int("status", he.Code),
						slog.Any("message", he.Message),
						slog.String("path", c.Path()),
					)
				}
				return err
			}

			// Check if it's a domain error
			if bantay.ErrorCode(err) != bantay.EINTERNAL || isBantayError(err) {
				return HandleError(c, logger, err)
			}

			// Wrap unexpected errors as internal errors
			wrapped := bantay.Internal("An unexpected error occurred", err)
			return HandleError(c, logger, wrapped)
		}
	}
}

// isBantayError checks if the error is a bantay.Error type.
func isBantayError(err error) bool {
	_, ok := err.(*bantay.Error)
	return ok
}
