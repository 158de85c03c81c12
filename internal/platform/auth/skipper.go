package auth

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// publicPaths bypass authentication: infrastructure endpoints and the
// sign-in flow.
var publicPaths = map[string]bool{
	"/health":                      true,
	"/health/db":                   true,
	"/metrics":                     true,
	"/auth/signup":                 true,
	"/auth/login":                  true,
	"/auth/password-reset":         true,
	"/auth/password-reset/confirm": true,
}

// publicPrefixes cover parameterised public routes. Stored files are served
// by id so letterhead URLs work inside rendered reports.
var publicPrefixes = []string{"/files/"}

// AuthSkipper returns true for requests whose path should skip authentication.
func AuthSkipper(c echo.Context) bool {
	path := c.Path()
	if path == "" {
		path = c.Request().URL.Path
	}
	return IsPublicPath(path)
}

func IsPublicPath(path string) bool {
	if publicPaths[path] {
		return true
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
