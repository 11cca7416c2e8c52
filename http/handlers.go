package http

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/kdelacruz/bantay"
	"github.com/kdelacruz/bantay/internal/validation"
	"github.com/labstack/echo/v4"
)

// withTimeout creates a context with a timeout for handler operations.
func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), DefaultTimeout)
}

// parseUUID parses a UUID from a string, returning a domain error if invalid.
func parseUUID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.UUID{}, bantay.Invalid("Invalid ID format")
	}
	return id, nil
}

// requireParam extracts a required route parameter, returning error if empty.
func requireParam(c echo.Context, name string) (string, error) {
	value := c.Param(name)
	if value == "" {
		return "", bantay.Invalid("%s is required", name)
	}
	return value, nil
}

// requireUUIDParam extracts and parses a required UUID route parameter.
func requireUUIDParam(c echo.Context, name string) (uuid.UUID, error) {
	value, err := requireParam(c, name)
	if err != nil {
		return uuid.UUID{}, err
	}
	return parseUUID(value)
}

// requireOfficer extracts the authenticated officer from context.
func requireOfficer(c echo.Context) (*bantay.Officer, error) {
	officer := bantay.OfficerFromContext(c.Request().Context())
	if officer == nil {
		return nil, bantay.Unauthorized("Officer identity required")
	}
	return officer, nil
}

// requireAdmin extracts the authenticated officer and checks for the admin role.
func requireAdmin(c echo.Context) (*bantay.Officer, error) {
	officer, err := requireOfficer(c)
	if err != nil {
		return nil, err
	}
	if !officer.IsAdmin() {
		return nil, bantay.Forbidden("Administrator role required")
	}
	return officer, nil
}

// bind binds the request body to a struct and validates it.
func bind(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return bantay.Invalid("Invalid request body")
	}
	if err := c.Validate(v); err != nil {
		return bantay.ErrorWithFields(validation.FormatValidationErrors(err))
	}
	return nil
}

// queryUUID parses an optional UUID query parameter.
func queryUUID(c echo.Context, name string) (*uuid.UUID, error) {
	value := c.QueryParam(name)
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, bantay.Invalid("Invalid %s format", name)
	}
	return &id, nil
}

// queryTime parses an optional RFC 3339 query parameter.
func queryTime(c echo.Context, name string) (*time.Time, error) {
	value := c.QueryParam(name)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		// Date-only values are common from report tooling.
		t, err = time.Parse("2006-01-02", value)
		if err != nil {
			return nil, bantay.Invalid("Invalid %s, expected RFC 3339 timestamp or YYYY-MM-DD", name)
		}
	}
	return &t, nil
}

// queryInt parses an optional integer query parameter with a default.
func queryInt(c echo.Context, name string, def int) int {
	value := c.QueryParam(name)
	if value == "" {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return n
}

// pagination extracts offset/limit query parameters with sane bounds.
func pagination(c echo.Context) (offset, limit int) {
	offset = queryInt(c, "offset", 0)
	limit = queryInt(c, "limit", 20)
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return offset, limit
}

// log returns the request-scoped logger.
func (s *Server) log(c echo.Context) *slog.Logger {
	return s.getRequestLogger(c)
}

// Health handlers

func (s *Server) handleHealthCheck(c echo.Context) error {
	return RespondOK(c, map[string]string{"status": "ok"})
}

func (s *Server) handleLivenessCheck(c echo.Context) error {
	return RespondOK(c, map[string]string{"status": "alive"})
}

func (s *Server) handleReadinessCheck(c echo.Context) error {
	return RespondOK(c, map[string]string{"status": "ready"})
}
