package middleware

import (
	"tablekeep/internal/common"
	"tablekeep/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthorizationMiddleware guards routes with the role an operation requires
// in the resolved tenant.
type AuthorizationMiddleware struct {
	authorizer services.RoleAuthorizer
}

func NewAuthorizationMiddleware(authorizer services.RoleAuthorizer) *AuthorizationMiddleware {
	return &AuthorizationMiddleware{authorizer: authorizer}
}

// RequireOperation must run after tenant resolution.
func (m *AuthorizationMiddleware) RequireOperation(op services.Operation) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := m.authorizer.Authorize(c.Request().Context(), op); err != nil {
				return common.SendError(c, err)
			}
			return next(c)
		}
	}
}
