package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/firewatch/internal/core/domain"
	"github.com/samirrijal/firewatch/internal/core/ports"
	"github.com/samirrijal/firewatch/internal/pkg/geospatial"
	"github.com/samirrijal/firewatch/internal/pkg/metrics"
	"github.com/samirrijal/firewatch/internal/pkg/telemetry"
)

// RoutePlannerConfig tunes route planning.
type RoutePlannerConfig struct {
	Avoid             geospatial.AvoidOptions
	Distance          geospatial.DistanceFunc
	GeocodeTTLSeconds int
}

// RoutePlanner finds the nearest shelter for an address and asks the
// routing provider for a path there that avoids active fires. It keeps no
// state between calls.
type RoutePlanner struct {
	geocoder  ports.Geocoder
	router    ports.Router
	snapshots ports.SnapshotRepository
	cache     ports.CacheService
	publisher ports.EventPublisher
	cfg       RoutePlannerConfig
	now       func() time.Time
}

// NewRoutePlanner creates a new RoutePlanner. cache and publisher may be nil.
func NewRoutePlanner(
	geocoder ports.Geocoder,
	router ports.Router,
	snapshots ports.SnapshotRepository,
	cache ports.CacheService,
	publisher ports.EventPublisher,
	cfg RoutePlannerConfig,
) *RoutePlanner {
	if cfg.Distance == nil {
		cfg.Distance = geospatial.Planar
	}
	return &RoutePlanner{
		geocoder:  geocoder,
		router:    router,
		snapshots: snapshots,
		cache:     cache,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

// PlanRoute geocodes address, picks the nearest shelter, builds avoid
// regions from the current hazard snapshot and requests a route.
//
// Errors are classified: an address that cannot be resolved is an input
// error, a missing shelter or path is an empty result, and transport or
// status failures from the geocoder or router are upstream errors.
func (p *RoutePlanner) PlanRoute(ctx context.Context, address string) (plan *domain.RoutePlan, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanPlanRoute)
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = domain.KindOf(err).String()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		metrics.RoutePlans.WithLabelValues(outcome).Inc()
		span.End()
	}()

	address = strings.TrimSpace(address)
	if address == "" {
		return nil, domain.InputError("address must not be empty")
	}

	origin, err := p.geocode(ctx, address)
	if err != nil {
		return nil, err
	}

	shelters, err := p.snapshots.Shelters(ctx)
	if err != nil {
		return nil, fmt.Errorf("load shelters: %w", err)
	}
	shelter, ok := geospatial.NearestBy(origin, shelters, p.cfg.Distance)
	if !ok {
		return nil, domain.EmptyResultError("no shelter available")
	}

	hazards, err := p.snapshots.Hazards(ctx)
	if err != nil {
		return nil, fmt.Errorf("load hazards: %w", err)
	}
	regions, err := geospatial.BuildAvoidRegions(hazards, p.cfg.Avoid)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("firewatch.avoid_regions", len(regions)),
		attribute.String("firewatch.shelter_id", shelter.ID),
	)
	metrics.AvoidRegionsSubmitted.Observe(float64(len(regions)))

	route, err := p.router.Route(ctx, ports.RouteRequest{
		Origin:       origin,
		Destination:  shelter.Location,
		AvoidRegions: regions,
	})
	if err != nil {
		return nil, err
	}
	if route == nil || len(route.Path) == 0 {
		return nil, domain.EmptyResultError("no route found")
	}

	plan = &domain.RoutePlan{
		ID:           uuid.NewString(),
		Address:      address,
		Origin:       origin,
		Shelter:      shelter,
		AvoidRegions: regions,
		Route:        *route,
		PlannedAt:    p.now().UTC(),
	}

	if p.publisher != nil {
		if err := p.publisher.PublishRoutePlanned(ctx, plan); err != nil {
			slog.WarnContext(ctx, "publish route plan failed", "plan_id", plan.ID, "error", err)
		}
	}

	return plan, nil
}

// geocode resolves an address through the cache and then the geocoder.
// Anything other than an upstream failure means the address is not resolvable.
func (p *RoutePlanner) geocode(ctx context.Context, address string) (domain.GeoPoint, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanGeocode)
	defer span.End()

	cacheKey := "geocode:" + strings.ToLower(address)
	if p.cache != nil {
		if data, err := p.cache.Get(ctx, cacheKey); err == nil {
			var pt domain.GeoPoint
			if err := json.Unmarshal(data, &pt); err == nil && pt.Valid() {
				metrics.CacheHits.WithLabelValues("geocode").Inc()
				return pt, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("geocode").Inc()
	}

	pt, err := p.geocoder.Geocode(ctx, address)
	if err != nil {
		if domain.KindOf(err) == domain.KindUpstream {
			return domain.GeoPoint{}, err
		}
		return domain.GeoPoint{}, &domain.Error{Kind: domain.KindInput, Message: "address not resolvable", Err: err}
	}
	if !pt.InRange() {
		return domain.GeoPoint{}, domain.InputError("address not resolvable: geocoder returned %v,%v", pt.Lat, pt.Lon)
	}

	if p.cache != nil && p.cfg.GeocodeTTLSeconds > 0 {
		if data, err := json.Marshal(pt); err == nil {
			_ = p.cache.Set(ctx, cacheKey, data, p.cfg.GeocodeTTLSeconds)
		}
	}
	return pt, nil
}
