package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medibook/medibook/internal/platform/apperr"
)

// RequestTimeout sets a deadline on the request context. The handler runs on
// the request goroutine; repositories observe the deadline through pgx and a
// handler error caused by it is reported as Internal. A zero timeout disables
// the middleware.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if timeout <= 0 {
			return next
		}
		return func(c echo.Context) error {
			req := c.Request()
			ctx, cancel := context.WithTimeout(req.Context(), timeout)
			defer cancel()

			c.SetRequest(req.WithContext(ctx))
			err := next(c)
			if err != nil && errors.Is(err, context.DeadlineExceeded) && apperr.KindOf(err) == apperr.KindInternal {
				return apperr.Internal("request timed out", err)
			}
			return err
		}
	}
}
