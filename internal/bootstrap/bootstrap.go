// Package bootstrap builds the adapters shared by the firewatch binaries
// from a loaded config.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samirrijal/firewatch/internal/adapters/geocoder"
	"github.com/samirrijal/firewatch/internal/adapters/graphhopper"
	"github.com/samirrijal/firewatch/internal/adapters/memory"
	"github.com/samirrijal/firewatch/internal/adapters/postgres"
	"github.com/samirrijal/firewatch/internal/adapters/sources"
	"github.com/samirrijal/firewatch/internal/adapters/valkey"
	"github.com/samirrijal/firewatch/internal/core/domain"
	"github.com/samirrijal/firewatch/internal/core/ports"
	"github.com/samirrijal/firewatch/internal/core/usecases"
	"github.com/samirrijal/firewatch/internal/pkg/config"
	"github.com/samirrijal/firewatch/internal/pkg/geospatial"
)

// Store opens the configured snapshot store. db is nil for the memory store.
func Store(ctx context.Context, cfg *config.Config) (repo ports.SnapshotRepository, db *postgres.DB, err error) {
	switch cfg.Snapshot.Store {
	case "postgres":
		db, err = postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("database: %w", err)
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return postgres.NewSnapshotRepo(db), db, nil
	default:
		return memory.NewSnapshotRepo(), nil, nil
	}
}

// Cache connects to valkey, falling back to the in-process cache when no
// address is configured or the server is unreachable. ping is nil for the
// in-process cache.
func Cache(ctx context.Context, cfg *config.Config) (cache ports.CacheService, ping func(context.Context) error, closeFn func()) {
	if cfg.Valkey.Addr != "" {
		vc, err := valkey.New(cfg.Valkey.Addr, "firewatch:")
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err = vc.Ping(pingCtx)
			cancel()
			if err == nil {
				return vc, vc.Ping, vc.Close
			}
			vc.Close()
		}
		slog.Warn("valkey unavailable, using in-process cache", "addr", cfg.Valkey.Addr, "error", err)
	}
	return memory.NewCache(5 * time.Minute), nil, func() {}
}

// Sources builds the upstream entity feeds.
func Sources(cfg *config.Config) *sources.Sources {
	s := cfg.Snapshot
	return sources.New(sources.Config{
		StationsURL:   s.StationsURL,
		SheltersURL:   s.SheltersURL,
		OverpassURL:   s.OverpassURL,
		HydrantsQuery: s.HydrantsQuery,
		FirmsURL:      s.FirmsURL,
		AlertsURL:     s.AlertsURL,
		UserAgent:     s.UserAgent,
		Timeout:       s.Timeout,
	})
}

// Router builds the GraphHopper client.
func Router(cfg *config.Config) *graphhopper.Client {
	return graphhopper.New(graphhopper.Config{
		URL:     cfg.Routing.URL,
		Key:     cfg.Routing.Key,
		Profile: cfg.Routing.Profile,
		Timeout: cfg.Routing.Timeout,
	})
}

// Geocoder builds the address geocoder.
func Geocoder(cfg *config.Config) *geocoder.Google {
	return geocoder.NewGoogle(geocoder.Config{
		URL:     cfg.Geocoder.URL,
		Key:     cfg.Geocoder.Key,
		Timeout: cfg.Geocoder.Timeout,
	})
}

// AvoidOptions maps the routing section to avoid-region options.
func AvoidOptions(cfg *config.Config) geospatial.AvoidOptions {
	r := cfg.Routing
	return geospatial.AvoidOptions{
		MaxCount:    r.MaxAvoidRegions,
		RadiusKm:    r.AvoidRadiusKm,
		Shape:       domain.AvoidShape(r.AvoidShape),
		Sides:       r.CircleSides,
		BoxDeltaDeg: r.BoxDeltaDeg,
	}
}

// Distance returns the configured distance metric.
func Distance(cfg *config.Config) geospatial.DistanceFunc {
	return geospatial.Metric(cfg.Routing.DistanceMetric)
}

// Services bundles the usecases every binary may need.
type Services struct {
	Entities    *usecases.EntityService
	Planner     *usecases.RoutePlanner
	Deployments *usecases.DeploymentService
	Snapshots   *usecases.SnapshotService
}

// NewServices wires the usecases over repo. cache and publisher may be nil.
func NewServices(cfg *config.Config, repo ports.SnapshotRepository, cache ports.CacheService, publisher ports.EventPublisher) *Services {
	avoid := AvoidOptions(cfg)
	dist := Distance(cfg)
	return &Services{
		Entities: usecases.NewEntityService(repo, avoid, dist),
		Planner: usecases.NewRoutePlanner(Geocoder(cfg), Router(cfg), repo, cache, publisher, usecases.RoutePlannerConfig{
			Avoid:             avoid,
			Distance:          dist,
			GeocodeTTLSeconds: cfg.Geocoder.CacheTTLSeconds,
		}),
		Deployments: usecases.NewDeploymentService(repo, publisher, dist),
		Snapshots:   usecases.NewSnapshotService(Sources(cfg), repo, publisher),
	}
}
