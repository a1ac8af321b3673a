package api

import (
	"github.com/labstack/echo/v4"
)

// NoStoreMiddleware marks responses as uncacheable so full pages always
// reflect the current store contents.
func NoStoreMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
			return next(c)
		}
	}
}
