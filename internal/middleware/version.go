package middleware

import (
	"github.com/labstack/echo/v4"
)

// APIVersion is the version prefix of the HTTP API.
const APIVersion = "v1"

// VersionHeader adds the API version to every response of a group.
func VersionHeader(version string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("X-API-Version", version)
			return next(c)
		}
	}
}

// VersionRoute creates the route group for version.
func VersionRoute(e *echo.Echo, version string) *echo.Group {
	group := e.Group("/" + version)
	group.Use(VersionHeader(version))
	return group
}
