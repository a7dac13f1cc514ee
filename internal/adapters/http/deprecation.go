package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// DeprecatedRoute marks an endpoint as deprecated with sunset date.
type DeprecatedRoute struct {
	Method      string    // Empty matches any method
	Path        string    // Exact request path
	SunsetDate  time.Time // Date when endpoint will be removed
	Alternative string    // Recommended replacement endpoint (optional)
}

// legacySunset is when the /api aliases kept for the old dashboard go away.
var legacySunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

// legacyRoutes are the endpoints the original dashboard called.
var legacyRoutes = []DeprecatedRoute{
	{Method: fiber.MethodGet, Path: "/api/shelters", SunsetDate: legacySunset, Alternative: "/v1/shelters"},
	{Method: fiber.MethodPost, Path: "/api/graphhopper-route", SunsetDate: legacySunset, Alternative: "/v1/routing/proxy"},
	{Method: fiber.MethodGet, Path: "/api/optimal-deployment", SunsetDate: legacySunset, Alternative: "/v1/deployments/optimal"},
}

// DeprecationMiddleware adds Deprecation, Sunset, and Link headers to deprecated endpoints.
func DeprecationMiddleware(deprecated []DeprecatedRoute) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, d := range deprecated {
			if c.Path() != d.Path || (d.Method != "" && c.Method() != d.Method) {
				continue
			}
			// RFC 8594
			c.Set("Deprecation", "true")
			c.Set("Sunset", d.SunsetDate.UTC().Format(time.RFC1123))
			if d.Alternative != "" {
				c.Set(fiber.HeaderLink, fmt.Sprintf(`<%s>; rel="successor-version"`, d.Alternative))
			}
			days := time.Until(d.SunsetDate).Hours() / 24
			c.Set("Warning", fmt.Sprintf(`299 - "Deprecated API, will sunset in %.0f days"`, days))
			break
		}

		return c.Next()
	}
}
