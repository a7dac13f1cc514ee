package usecases_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/samirrijal/firewatch/internal/core/domain"
	"github.com/samirrijal/firewatch/internal/core/ports"
	"github.com/samirrijal/firewatch/internal/core/usecases"
	"github.com/samirrijal/firewatch/internal/pkg/geospatial"
)

func laSnapshots() *mockSnapshots {
	return &mockSnapshots{
		shelters: []domain.Shelter{
			{ID: "far", Name: "Pasadena High", Location: domain.GeoPoint{Lat: 34.15, Lon: -118.10}},
			{ID: "near", Name: "Downtown Rec Center", Location: domain.GeoPoint{Lat: 34.06, Lon: -118.25}},
		},
		hazards: []domain.Hazard{
			{ID: "h1", Location: domain.GeoPoint{Lat: 34.10, Lon: -118.30}, Intensity: 310},
			{ID: "h2", Location: domain.GeoPoint{Lat: 34.20, Lon: -118.40}, Intensity: 350},
		},
	}
}

func fixedGeocoder(pt domain.GeoPoint) *mockGeocoder {
	return &mockGeocoder{geocodeFn: func(ctx context.Context, address string) (domain.GeoPoint, error) {
		return pt, nil
	}}
}

func TestRoutePlanner_PlanRoute(t *testing.T) {
	snaps := laSnapshots()
	router := &mockRouter{}
	pub := &mockPublisher{}
	planner := usecases.NewRoutePlanner(fixedGeocoder(domain.GeoPoint{Lat: 34.05, Lon: -118.24}), router, snaps, nil, pub, usecases.RoutePlannerConfig{})

	plan, err := planner.PlanRoute(context.Background(), "  200 N Spring St, Los Angeles  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Shelter.ID != "near" {
		t.Errorf("expected nearest shelter 'near', got %s", plan.Shelter.ID)
	}
	if plan.Address != "200 N Spring St, Los Angeles" {
		t.Errorf("address not trimmed: %q", plan.Address)
	}
	if len(plan.AvoidRegions) != 2 {
		t.Fatalf("expected 2 avoid regions, got %d", len(plan.AvoidRegions))
	}
	if plan.AvoidRegions[0].HazardID != "h2" {
		t.Errorf("most intense hazard should come first, got %s", plan.AvoidRegions[0].HazardID)
	}
	if router.calls != 1 {
		t.Errorf("expected 1 router call, got %d", router.calls)
	}
	if router.last.Destination != plan.Shelter.Location {
		t.Errorf("router destination %v != shelter %v", router.last.Destination, plan.Shelter.Location)
	}
	if len(pub.plans) != 1 || pub.plans[0].ID != plan.ID {
		t.Errorf("expected plan to be published once")
	}
}

func TestRoutePlanner_EmptyAddress(t *testing.T) {
	geo := &mockGeocoder{}
	router := &mockRouter{}
	planner := usecases.NewRoutePlanner(geo, router, laSnapshots(), nil, nil, usecases.RoutePlannerConfig{})

	_, err := planner.PlanRoute(context.Background(), "   ")
	if !errors.Is(err, domain.ErrInput) {
		t.Fatalf("expected input error, got %v", err)
	}
	if geo.calls != 0 || router.calls != 0 {
		t.Errorf("no upstream calls expected, got geocoder=%d router=%d", geo.calls, router.calls)
	}
}

func TestRoutePlanner_UnresolvableAddress(t *testing.T) {
	geo := &mockGeocoder{geocodeFn: func(ctx context.Context, address string) (domain.GeoPoint, error) {
		return domain.GeoPoint{}, domain.EmptyResultError("ZERO_RESULTS")
	}}
	router := &mockRouter{}
	planner := usecases.NewRoutePlanner(geo, router, laSnapshots(), nil, nil, usecases.RoutePlannerConfig{})

	_, err := planner.PlanRoute(context.Background(), "nowhere at all")
	if !errors.Is(err, domain.ErrInput) {
		t.Fatalf("expected input error, got %v", err)
	}
	if router.calls != 0 {
		t.Errorf("router must not be called, got %d calls", router.calls)
	}
}

func TestRoutePlanner_OutOfRangeGeocode(t *testing.T) {
	router := &mockRouter{}
	planner := usecases.NewRoutePlanner(fixedGeocoder(domain.GeoPoint{Lat: 120, Lon: 10}), router, laSnapshots(), nil, nil, usecases.RoutePlannerConfig{})

	_, err := planner.PlanRoute(context.Background(), "somewhere")
	if !errors.Is(err, domain.ErrInput) {
		t.Fatalf("expected input error, got %v", err)
	}
	if router.calls != 0 {
		t.Errorf("router must not be called")
	}
}

func TestRoutePlanner_GeocoderUpstreamFailure(t *testing.T) {
	geo := &mockGeocoder{geocodeFn: func(ctx context.Context, address string) (domain.GeoPoint, error) {
		return domain.GeoPoint{}, domain.UpstreamError("geocoder", errors.New("status 503"))
	}}
	planner := usecases.NewRoutePlanner(geo, &mockRouter{}, laSnapshots(), nil, nil, usecases.RoutePlannerConfig{})

	_, err := planner.PlanRoute(context.Background(), "200 N Spring St")
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestRoutePlanner_NoShelters(t *testing.T) {
	snaps := laSnapshots()
	snaps.shelters = nil
	router := &mockRouter{}
	planner := usecases.NewRoutePlanner(fixedGeocoder(domain.GeoPoint{Lat: 34.05, Lon: -118.24}), router, snaps, nil, nil, usecases.RoutePlannerConfig{})

	_, err := planner.PlanRoute(context.Background(), "200 N Spring St")
	if !errors.Is(err, domain.ErrEmptyResult) {
		t.Fatalf("expected empty result, got %v", err)
	}
	if router.calls != 0 {
		t.Errorf("router must not be called")
	}
}

func TestRoutePlanner_RouterFailures(t *testing.T) {
	tests := []struct {
		name   string
		result *domain.RouteResult
		err    error
		want   error
	}{
		{"upstream", nil, domain.UpstreamError("graphhopper", errors.New("Point 0 is out of bounds")), domain.ErrUpstream},
		{"no paths", nil, domain.EmptyResultError("no route found"), domain.ErrEmptyResult},
		{"empty path", &domain.RouteResult{}, nil, domain.ErrEmptyResult},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := &mockRouter{routeFn: func(ctx context.Context, req ports.RouteRequest) (*domain.RouteResult, error) {
				return tt.result, tt.err
			}}
			pub := &mockPublisher{}
			planner := usecases.NewRoutePlanner(fixedGeocoder(domain.GeoPoint{Lat: 34.05, Lon: -118.24}), router, laSnapshots(), nil, pub, usecases.RoutePlannerConfig{})

			_, err := planner.PlanRoute(context.Background(), "200 N Spring St")
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if len(pub.plans) != 0 {
				t.Errorf("failed plans must not be published")
			}
		})
	}
}

func TestRoutePlanner_CapsAvoidRegions(t *testing.T) {
	snaps := laSnapshots()
	snaps.hazards = make([]domain.Hazard, 120)
	for i := range snaps.hazards {
		snaps.hazards[i] = domain.Hazard{Location: domain.GeoPoint{Lat: 34 + float64(i)*0.001, Lon: -118}, Intensity: float64(i)}
	}
	router := &mockRouter{}
	planner := usecases.NewRoutePlanner(fixedGeocoder(domain.GeoPoint{Lat: 34.05, Lon: -118.24}), router, snaps, nil, nil, usecases.RoutePlannerConfig{
		Avoid: geospatial.AvoidOptions{MaxCount: 25},
	})

	if _, err := planner.PlanRoute(context.Background(), "200 N Spring St"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(router.last.AvoidRegions) != 25 {
		t.Errorf("expected 25 regions, got %d", len(router.last.AvoidRegions))
	}
}

func TestRoutePlanner_RegionsAreDeterministic(t *testing.T) {
	router := &mockRouter{}
	planner := usecases.NewRoutePlanner(fixedGeocoder(domain.GeoPoint{Lat: 34.05, Lon: -118.24}), router, laSnapshots(), nil, nil, usecases.RoutePlannerConfig{})

	first, err := planner.PlanRoute(context.Background(), "200 N Spring St")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := planner.PlanRoute(context.Background(), "200 N Spring St")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first.AvoidRegions, second.AvoidRegions) {
		t.Error("avoid regions differ between identical calls")
	}
	if first.ID == second.ID {
		t.Error("plan IDs must be unique")
	}
}

func TestRoutePlanner_GeocodeCache(t *testing.T) {
	geo := fixedGeocoder(domain.GeoPoint{Lat: 34.05, Lon: -118.24})
	cache := newMockCache()
	planner := usecases.NewRoutePlanner(geo, &mockRouter{}, laSnapshots(), cache, nil, usecases.RoutePlannerConfig{GeocodeTTLSeconds: 60})

	for i := 0; i < 3; i++ {
		if _, err := planner.PlanRoute(context.Background(), "200 N Spring St"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if geo.calls != 1 {
		t.Errorf("expected geocoder to be called once, got %d", geo.calls)
	}
}

func TestRoutePlanner_PublishFailureIsNotFatal(t *testing.T) {
	pub := &mockPublisher{err: errors.New("nats down")}
	planner := usecases.NewRoutePlanner(fixedGeocoder(domain.GeoPoint{Lat: 34.05, Lon: -118.24}), &mockRouter{}, laSnapshots(), nil, pub, usecases.RoutePlannerConfig{})

	if _, err := planner.PlanRoute(context.Background(), "200 N Spring St"); err != nil {
		t.Fatalf("publish failure must not fail the plan: %v", err)
	}
}
