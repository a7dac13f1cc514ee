package http_test

import (
	"context"
	"errors"

	"github.com/samirrijal/firewatch/internal/core/domain"
	"github.com/samirrijal/firewatch/internal/core/ports"
)

// ---- Mock ports ----

type mockGeocoder struct {
	geocodeFn func(ctx context.Context, address string) (domain.GeoPoint, error)
}

func (m *mockGeocoder) Geocode(ctx context.Context, address string) (domain.GeoPoint, error) {
	if m.geocodeFn != nil {
		return m.geocodeFn(ctx, address)
	}
	return domain.GeoPoint{}, domain.EmptyResultError("no geocoding result")
}

type mockRouter struct {
	routeFn func(ctx context.Context, req ports.RouteRequest) (*domain.RouteResult, error)
}

func (m *mockRouter) Route(ctx context.Context, req ports.RouteRequest) (*domain.RouteResult, error) {
	if m.routeFn != nil {
		return m.routeFn(ctx, req)
	}
	d := 1200.0
	return &domain.RouteResult{Path: []domain.GeoPoint{req.Origin, req.Destination}, DistanceMeters: &d}, nil
}

type mockForwarder struct {
	forwardFn func(ctx context.Context, body []byte) (int, []byte, error)
}

func (m *mockForwarder) Forward(ctx context.Context, body []byte) (int, []byte, error) {
	if m.forwardFn != nil {
		return m.forwardFn(ctx, body)
	}
	return 200, []byte(`{"paths":[]}`), nil
}

type mockSources struct {
	stationsFn func(ctx context.Context) (ports.FetchResult[domain.Station], error)
	sheltersFn func(ctx context.Context) (ports.FetchResult[domain.Shelter], error)
	hydrantsFn func(ctx context.Context) (ports.FetchResult[domain.Hydrant], error)
	hazardsFn  func(ctx context.Context) (ports.FetchResult[domain.Hazard], error)
	alertsFn   func(ctx context.Context) (ports.FetchResult[domain.WeatherAlert], error)
}

var errNoSource = errors.New("source not configured")

func (m *mockSources) FetchStations(ctx context.Context) (ports.FetchResult[domain.Station], error) {
	if m.stationsFn != nil {
		return m.stationsFn(ctx)
	}
	return ports.FetchResult[domain.Station]{}, domain.UpstreamError("stations", errNoSource)
}

func (m *mockSources) FetchShelters(ctx context.Context) (ports.FetchResult[domain.Shelter], error) {
	if m.sheltersFn != nil {
		return m.sheltersFn(ctx)
	}
	return ports.FetchResult[domain.Shelter]{}, domain.UpstreamError("shelters", errNoSource)
}

func (m *mockSources) FetchHydrants(ctx context.Context) (ports.FetchResult[domain.Hydrant], error) {
	if m.hydrantsFn != nil {
		return m.hydrantsFn(ctx)
	}
	return ports.FetchResult[domain.Hydrant]{}, domain.UpstreamError("overpass", errNoSource)
}

func (m *mockSources) FetchHazards(ctx context.Context) (ports.FetchResult[domain.Hazard], error) {
	if m.hazardsFn != nil {
		return m.hazardsFn(ctx)
	}
	return ports.FetchResult[domain.Hazard]{}, domain.UpstreamError("firms", errNoSource)
}

func (m *mockSources) FetchAlerts(ctx context.Context) (ports.FetchResult[domain.WeatherAlert], error) {
	if m.alertsFn != nil {
		return m.alertsFn(ctx)
	}
	return ports.FetchResult[domain.WeatherAlert]{}, domain.UpstreamError("nws", errNoSource)
}
