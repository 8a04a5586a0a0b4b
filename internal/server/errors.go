package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Sajeel041/FIX-POINT/internal/apperr"
	"github.com/Sajeel041/FIX-POINT/internal/logger"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ErrorHandler renders domain errors and echo's own errors in one shape.
// Internal causes are logged and never returned to the client.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := render(err)
	if status >= http.StatusInternalServerError {
		logger.FromEcho(c).Error("request failed", zap.Error(err), zap.String("path", c.Path()))
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, body)
	}
	if werr != nil {
		logger.FromEcho(c).Warn("failed to write error response", zap.Error(werr))
	}
}

func render(err error) (int, ErrorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		case nil:
		default:
			msg = fmt.Sprint(m)
		}
		return he.Code, ErrorResponse{Message: msg, Code: codeForStatus(he.Code)}
	}

	kind := apperr.KindOf(err)
	return kind.Status(), ErrorResponse{Message: apperr.Message(err), Code: kind.String()}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return apperr.Validation.String()
	case http.StatusUnauthorized:
		return apperr.Unauthenticated.String()
	case http.StatusForbidden:
		return apperr.Forbidden.String()
	case http.StatusNotFound:
		return apperr.NotFound.String()
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusTooManyRequests:
		return "rate_limited"
	}
	if status >= http.StatusInternalServerError {
		return apperr.Internal.String()
	}
	return "error"
}
