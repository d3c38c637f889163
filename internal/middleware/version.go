package middleware

import "github.com/labstack/echo/v4"

type apiVersion struct {
	deprecated bool
	// sunset is an HTTP date sent once a version is deprecated.
	sunset string
}

var apiVersions = map[string]apiVersion{
	"v1": {},
}

// VersionHeader tags every response of a route group with its API version
// and flags deprecated versions.
func VersionHeader(version string) echo.MiddlewareFunc {
	info := apiVersions[version]
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-API-Version", version)
			if info.deprecated {
				h.Set("X-API-Deprecated", "true")
				if info.sunset != "" {
					h.Set("Sunset", info.sunset)
				}
			}
			return next(c)
		}
	}
}
