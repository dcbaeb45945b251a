package auth

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/medibook/medibook/internal/platform/apperr"
)

// RequireRole returns middleware that lets the request through only when the
// actor holds one of roles. Unlike a superuser model, admin is not implied.
func RequireRole(roles ...Role) echo.MiddlewareFunc {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	denied := fmt.Sprintf("Role '%%s' is not authorized to access this route, required role: %s", strings.Join(names, " or "))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := ActorFromContext(c.Request().Context())
			if !ok {
				return apperr.Unauthenticated("Not authorized, no token provided")
			}
			for _, r := range roles {
				if actor.Role == r {
					return next(c)
				}
			}
			return apperr.Forbidden(fmt.Sprintf(denied, actor.Role))
		}
	}
}
