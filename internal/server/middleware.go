package server

import (
	"net/http"

	"harbormaster/internal/errors"
	"harbormaster/internal/logger"

	"github.com/labstack/echo/v4"
)

// ErrorHandler converts errors into JSON responses, mapping typed domain
// errors to their HTTP status.
func ErrorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	message := "Internal server error"

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			message = msg
		}
	} else if he, ok := err.(*errors.HarbormasterError); ok {
		code = he.GetHTTPStatus()
		message = he.Error()
	}

	reqID := c.Request().Header.Get(echo.HeaderXRequestID)
	if reqID == "" {
		reqID = c.Response().Header().Get(echo.HeaderXRequestID)
	}
	logger.WithFields(logger.Fields{
		"request_id": reqID,
		"method":     c.Request().Method,
		"path":       c.Request().URL.Path,
		"status":     code,
		"error":      err.Error(),
	}).Error("Request error")

	if !c.Response().Committed {
		if c.Request().Method == http.MethodHead {
			c.NoContent(code)
		} else {
			c.JSON(code, ErrorResponse{Error: message, RequestID: reqID})
		}
	}
}

// handleError converts an operation error into an echo HTTP error.
func handleError(err error) error {
	if he, ok := err.(*errors.HarbormasterError); ok {
		return echo.NewHTTPError(he.GetHTTPStatus(), he.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
