package bootstrap_test

import (
	"context"
	"math"
	"testing"

	"github.com/samirrijal/firewatch/internal/adapters/memory"
	"github.com/samirrijal/firewatch/internal/bootstrap"
	"github.com/samirrijal/firewatch/internal/core/domain"
	"github.com/samirrijal/firewatch/internal/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("firewatch-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func TestAvoidOptions_FromRouting(t *testing.T) {
	cfg := testConfig(t)
	cfg.Routing.MaxAvoidRegions = 7
	cfg.Routing.AvoidShape = "box"
	cfg.Routing.BoxDeltaDeg = 0.1

	opts := bootstrap.AvoidOptions(cfg)
	if opts.MaxCount != 7 || opts.Shape != domain.ShapeBox || opts.BoxDeltaDeg != 0.1 {
		t.Errorf("unexpected options: %+v", opts)
	}
	if opts.Sides != 36 || opts.RadiusKm != 5 {
		t.Errorf("expected defaults carried through, got %+v", opts)
	}
}

func TestDistance_Metric(t *testing.T) {
	cfg := testConfig(t)
	a := domain.GeoPoint{Lat: 34, Lon: -118}
	b := domain.GeoPoint{Lat: 35, Lon: -118}

	if d := bootstrap.Distance(cfg)(a, b); math.Abs(d-1) > 1e-9 {
		t.Errorf("planar distance: expected 1 degree, got %f", d)
	}

	cfg.Routing.DistanceMetric = "haversine"
	if d := bootstrap.Distance(cfg)(a, b); d < 110_000 || d > 112_000 {
		t.Errorf("haversine distance: expected ~111km, got %f m", d)
	}
}

func TestStore_Memory(t *testing.T) {
	cfg := testConfig(t)

	repo, db, err := bootstrap.Store(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db != nil {
		t.Error("memory store must not open a database")
	}
	if _, ok := repo.(*memory.SnapshotRepo); !ok {
		t.Errorf("expected memory repo, got %T", repo)
	}
}

func TestCache_FallsBackInProcess(t *testing.T) {
	cfg := testConfig(t)

	cache, ping, closeFn := bootstrap.Cache(context.Background(), cfg)
	defer closeFn()
	if _, ok := cache.(*memory.Cache); !ok {
		t.Errorf("expected in-process cache, got %T", cache)
	}
	if ping != nil {
		t.Error("in-process cache has no ping")
	}
}

func TestNewServices_Wired(t *testing.T) {
	cfg := testConfig(t)
	repo := memory.NewSnapshotRepo()
	ctx := context.Background()
	repo.ReplaceShelters(ctx, []domain.Shelter{{ID: "s1", Location: domain.GeoPoint{Lat: 34, Lon: -118}}})

	svc := bootstrap.NewServices(cfg, repo, nil, nil)
	shelter, err := svc.Entities.NearestShelter(ctx, domain.GeoPoint{Lat: 34.1, Lon: -118.1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shelter.ID != "s1" {
		t.Errorf("expected s1, got %s", shelter.ID)
	}
	if svc.Planner == nil || svc.Deployments == nil || svc.Snapshots == nil {
		t.Error("expected every service wired")
	}
}
