package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medibook/medibook/internal/platform/response"
)

// HTTPErrorHandler renders every failure as a {success:false} envelope.
// When dev is true the underlying error text is added under "error".
func HTTPErrorHandler(logger zerolog.Logger, dev bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolve(err, c)

		ev := logger.Warn()
		if code >= http.StatusInternalServerError {
			ev = logger.Error()
		}
		ev.Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Int("status", code).
			Msg("request failed")

		body := response.Fail(msg, "")
		if dev {
			body.Error = err.Error()
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, body)
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("failed to write error response")
		}
	}
}

func resolve(err error, c echo.Context) (int, string) {
	var ae *Error
	if errors.As(err, &ae) {
		msg := ae.Message
		if ae.Kind == KindInternal || msg == "" {
			msg = http.StatusText(HTTPStatus(ae.Kind))
		}
		return HTTPStatus(ae.Kind), msg
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound:
			if errors.Is(err, echo.ErrNotFound) {
				return he.Code, fmt.Sprintf("Route %s %s not found", c.Request().Method, c.Request().URL.Path)
			}
		case http.StatusMethodNotAllowed:
			return he.Code, fmt.Sprintf("Route %s %s not found", c.Request().Method, c.Request().URL.Path)
		}
		if m, ok := he.Message.(string); ok && m != "" {
			return he.Code, m
		}
		return he.Code, http.StatusText(he.Code)
	}

	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}
