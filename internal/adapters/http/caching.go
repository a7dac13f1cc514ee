package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control on GET responses unless the handler
// already did. Snapshot data changes at most once per refresh interval.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet {
			return err
		}
		if existing := c.GetRespHeader(fiber.HeaderCacheControl); existing != "" {
			return err
		}
		if c.Response().StatusCode() >= 400 {
			c.Set(fiber.HeaderCacheControl, "no-store")
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "no-cache"

		case path == "/metrics":
			ttl = "no-cache"

		case path == "/v1/deployments/optimal" || path == "/api/optimal-deployment":
			ttl = "no-cache" // Recomputed per request

		case strings.HasPrefix(path, "/v1/shelters/nearest"):
			ttl = "public, max-age=60"

		case strings.HasPrefix(path, "/v1/hazards"), strings.HasPrefix(path, "/v1/alerts"):
			ttl = "public, max-age=60" // Fire detections move fastest

		case path == "/v1/snapshots":
			ttl = "public, max-age=30"

		case strings.HasPrefix(path, "/v1/"), path == "/api/shelters":
			ttl = "public, max-age=300"

		case strings.HasPrefix(path, "/docs"):
			ttl = "public, max-age=3600"
		}

		if ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}

		return err
	}
}
