package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/aman-zulfiqar/sol-safety-check/internal/analyzer"
	"github.com/labstack/echo/v4"
)

// NotFoundJSON returns a custom HTTP error handler that returns JSON responses
// This ensures all errors (including 404s) have consistent JSON format
func NotFoundJSON() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		// Don't send response if already committed
		if c.Response().Committed {
			return
		}

		// Handle Echo HTTP errors (like 404, 401, 429)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			_ = c.JSON(he.Code, ErrorResponse{
				Error: http.StatusText(he.Code),
				Code:  he.Code,
			})
			return
		}

		// Handle all other errors as internal server error
		_ = c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  http.StatusInternalServerError,
		})
	}
}

// analysisErr maps analyzer failures onto HTTP statuses.
func (h *Handlers) analysisErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, analyzer.ErrInvalidAddress):
		return h.err(c, http.StatusBadRequest, "invalid mint address", map[string]any{"err": err.Error()})
	case errors.Is(err, analyzer.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return h.err(c, http.StatusGatewayTimeout, "analysis timed out", map[string]any{"err": err.Error()})
	case errors.Is(err, analyzer.ErrHistoryUnavailable):
		return h.err(c, http.StatusServiceUnavailable, "history is not configured", nil)
	default:
		h.logger().WithError(err).Error("analysis failed")
		return h.err(c, http.StatusInternalServerError, "analysis failed", map[string]any{"err": err.Error()})
	}
}
