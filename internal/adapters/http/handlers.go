package http

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/samirrijal/firewatch/internal/adapters/geojson"
	"github.com/samirrijal/firewatch/internal/core/domain"
	"github.com/samirrijal/firewatch/internal/core/ports"
	"github.com/samirrijal/firewatch/internal/pkg/geospatial"
	"github.com/samirrijal/firewatch/internal/pkg/metrics"
)

// layerTTLSeconds bounds how long a cached GeoJSON layer can outlive a missed
// invalidation event.
const layerTTLSeconds = 300

// listHandler serves a snapshot collection with offset/limit pagination.
func listHandler[T any](load func(ctx context.Context) ([]T, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := parsePagination(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		items, err := load(c.UserContext())
		if err != nil {
			return errDomain(c, err)
		}

		data := page(items, &p)
		SetLinkHeaders(c, p)
		return c.JSON(PaginatedResponse{Data: data, Pagination: p})
	}
}

// StationsHandler handles GET /v1/stations.
func StationsHandler(deps *Dependencies) fiber.Handler {
	return listHandler(deps.Entities.Stations)
}

// SheltersHandler handles GET /v1/shelters.
func SheltersHandler(deps *Dependencies) fiber.Handler {
	return listHandler(deps.Entities.Shelters)
}

// HydrantsHandler handles GET /v1/hydrants.
func HydrantsHandler(deps *Dependencies) fiber.Handler {
	return listHandler(deps.Entities.Hydrants)
}

// HazardsHandler handles GET /v1/hazards.
func HazardsHandler(deps *Dependencies) fiber.Handler {
	return listHandler(deps.Entities.Hazards)
}

// AlertsHandler handles GET /v1/alerts.
func AlertsHandler(deps *Dependencies) fiber.Handler {
	return listHandler(deps.Entities.Alerts)
}

func layerKey(kind domain.EntityKind) string {
	return "layer:" + string(kind)
}

// InvalidateLayer drops the cached GeoJSON layer for kind. Kinds without a
// layer are ignored.
func InvalidateLayer(ctx context.Context, cache ports.CacheService, kind domain.EntityKind) error {
	if cache == nil {
		return nil
	}
	switch kind {
	case domain.KindHazards, domain.KindShelters:
		return cache.Delete(ctx, layerKey(kind))
	}
	return nil
}

// layerHandler serves a GeoJSON FeatureCollection built by build, going
// through deps.Cache when one is configured.
func layerHandler(deps *Dependencies, kind domain.EntityKind, build func(ctx context.Context) (any, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		key := layerKey(kind)

		if deps.Cache != nil {
			if data, err := deps.Cache.Get(ctx, key); err == nil {
				metrics.CacheHits.WithLabelValues("layer").Inc()
				c.Set(fiber.HeaderContentType, "application/geo+json")
				return c.Send(data)
			}
			metrics.CacheMisses.WithLabelValues("layer").Inc()
		}

		fc, err := build(ctx)
		if err != nil {
			return errDomain(c, err)
		}
		data, err := json.Marshal(fc)
		if err != nil {
			return errDomain(c, fmt.Errorf("encode %s layer: %w", kind, err))
		}

		if deps.Cache != nil {
			if err := deps.Cache.Set(ctx, key, data, layerTTLSeconds); err != nil {
				LoggerFromCtx(ctx).Warn("layer cache write failed", "kind", kind, "error", err)
			}
		}

		c.Set(fiber.HeaderContentType, "application/geo+json")
		return c.Send(data)
	}
}

// HazardsGeoJSONHandler handles GET /v1/hazards/geojson.
func HazardsGeoJSONHandler(deps *Dependencies) fiber.Handler {
	return layerHandler(deps, domain.KindHazards, func(ctx context.Context) (any, error) {
		hazards, err := deps.Entities.Hazards(ctx)
		if err != nil {
			return nil, err
		}
		return geojson.Hazards(hazards), nil
	})
}

// SheltersGeoJSONHandler handles GET /v1/shelters/geojson.
func SheltersGeoJSONHandler(deps *Dependencies) fiber.Handler {
	return layerHandler(deps, domain.KindShelters, func(ctx context.Context) (any, error) {
		shelters, err := deps.Entities.Shelters(ctx)
		if err != nil {
			return nil, err
		}
		return geojson.Shelters(shelters), nil
	})
}

// parseAvoidOptions reads shape, radius_km and max. Absent parameters stay
// zero so the configured defaults apply.
func parseAvoidOptions(c *fiber.Ctx) (geospatial.AvoidOptions, error) {
	var opts geospatial.AvoidOptions

	switch shape := domain.AvoidShape(c.Query("shape")); shape {
	case "":
	case domain.ShapeCircle, domain.ShapeBox:
		opts.Shape = shape
	default:
		return opts, fmt.Errorf("shape must be %q or %q", domain.ShapeCircle, domain.ShapeBox)
	}

	if raw := c.Query("radius_km"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || r <= 0 || r > 500 {
			return opts, fmt.Errorf("radius_km must be a number in (0, 500]")
		}
		opts.RadiusKm = r
	}

	if raw := c.Query("max"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return opts, fmt.Errorf("max must be a positive integer")
		}
		opts.MaxCount = n
	}

	return opts, nil
}

// AvoidRegionsHandler handles GET /v1/hazards/avoid-regions.
func AvoidRegionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		opts, err := parseAvoidOptions(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		regions, err := deps.Entities.AvoidRegions(c.UserContext(), opts)
		if err != nil {
			return errDomain(c, err)
		}

		if c.Query("format") == "geojson" {
			c.Set(fiber.HeaderContentType, "application/geo+json")
			return c.JSON(geojson.AvoidRegions(regions))
		}
		return c.JSON(fiber.Map{
			"data":  regions,
			"count": len(regions),
		})
	}
}

// NearestShelterHandler handles GET /v1/shelters/nearest?lat=&lon=.
func NearestShelterHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		latStr, lonStr := c.Query("lat"), c.Query("lon")
		if latStr == "" || lonStr == "" {
			return errBadRequest(c, "lat and lon are required")
		}
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return errBadRequest(c, "invalid lat")
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			return errBadRequest(c, "invalid lon")
		}

		shelter, err := deps.Entities.NearestShelter(c.UserContext(), domain.GeoPoint{Lat: lat, Lon: lon})
		if err != nil {
			return errDomain(c, err)
		}
		return c.JSON(shelter)
	}
}

// PlanRouteRequest is the body of POST /v1/routes/plan.
type PlanRouteRequest struct {
	Address string `json:"address"`
}

// PlanRouteHandler handles POST /v1/routes/plan. With ?format=geojson only
// the route is returned, as a LineString feature.
func PlanRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req PlanRouteRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "body must be JSON with an address field")
		}

		plan, err := deps.Planner.PlanRoute(c.UserContext(), req.Address)
		if err != nil {
			return errDomain(c, err)
		}

		if c.Query("format") == "geojson" {
			c.Set(fiber.HeaderContentType, "application/geo+json")
			return c.JSON(geojson.Route(plan.Route))
		}
		return c.JSON(plan)
	}
}

// RoutingProxyHandler handles POST /v1/routing/proxy. The body is forwarded
// untouched and the provider's status and body are relayed back.
func RoutingProxyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Forwarder == nil {
			return errInternal(c, "routing provider is not configured")
		}
		body := c.Body()
		if len(body) == 0 || !json.Valid(body) {
			return errBadRequest(c, "body must be a JSON routing request")
		}

		status, resp, err := deps.Forwarder.Forward(c.UserContext(), body)
		if err != nil {
			return errDomain(c, err)
		}

		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Status(status).Send(resp)
	}
}

// OptimalDeploymentHandler handles GET /v1/deployments/optimal.
func OptimalDeploymentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		run, err := deps.Deployments.Optimal(c.UserContext())
		if err != nil {
			return errDomain(c, err)
		}
		return c.JSON(run)
	}
}

// RefreshRequest is the optional body of POST /v1/snapshots/refresh.
type RefreshRequest struct {
	Kinds []string `json:"kinds"`
}

// RefreshSnapshotsHandler handles POST /v1/snapshots/refresh. It answers 502
// only when every requested kind failed.
func RefreshSnapshotsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req RefreshRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return errBadRequest(c, "body must be JSON")
			}
		}
		kinds, err := domain.ParseKinds(req.Kinds)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		ctx := c.UserContext()
		outcomes := deps.Snapshots.Refresh(ctx, kinds...)

		failed := 0
		for _, o := range outcomes {
			if o.Error != "" {
				failed++
				continue
			}
			if err := InvalidateLayer(ctx, deps.Cache, o.Kind); err != nil {
				LoggerFromCtx(ctx).Warn("layer invalidation failed", "kind", o.Kind, "error", err)
			}
		}

		status := fiber.StatusOK
		if failed > 0 && failed == len(outcomes) {
			status = fiber.StatusBadGateway
		}
		return c.Status(status).JSON(fiber.Map{"results": outcomes})
	}
}

// SnapshotsMetaHandler handles GET /v1/snapshots.
func SnapshotsMetaHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		meta, err := deps.Entities.Meta(c.UserContext())
		if err != nil {
			return errDomain(c, err)
		}
		return c.JSON(fiber.Map{"data": meta})
	}
}

// LegacySheltersHandler handles GET /api/shelters with the bare array the
// old dashboard expects.
func LegacySheltersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shelters, err := deps.Entities.Shelters(c.UserContext())
		if err != nil {
			return errDomain(c, err)
		}
		return c.JSON(shelters)
	}
}

// LegacyDeploymentHandler handles GET /api/optimal-deployment. Failures are
// reported as {"error": "..."} with status 500.
func LegacyDeploymentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		run, err := deps.Deployments.Optimal(c.UserContext())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(run)
	}
}
