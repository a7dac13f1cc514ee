package usecases_test

import (
	"context"
	"errors"
	"sync"

	"github.com/samirrijal/firewatch/internal/core/domain"
	"github.com/samirrijal/firewatch/internal/core/ports"
)

// --- Mock SnapshotRepository ---

type mockSnapshots struct {
	mu       sync.Mutex
	stations []domain.Station
	shelters []domain.Shelter
	hydrants []domain.Hydrant
	hazards  []domain.Hazard
	alerts   []domain.WeatherAlert
	meta     map[domain.EntityKind]domain.Snapshot

	sheltersErr error
	replaceErr  error
}

func (m *mockSnapshots) ReplaceStations(ctx context.Context, v []domain.Station) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.stations = v
	return nil
}

func (m *mockSnapshots) ReplaceShelters(ctx context.Context, v []domain.Shelter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.shelters = v
	return nil
}

func (m *mockSnapshots) ReplaceHydrants(ctx context.Context, v []domain.Hydrant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.hydrants = v
	return nil
}

func (m *mockSnapshots) ReplaceHazards(ctx context.Context, v []domain.Hazard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.hazards = v
	return nil
}

func (m *mockSnapshots) ReplaceAlerts(ctx context.Context, v []domain.WeatherAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.alerts = v
	return nil
}

func (m *mockSnapshots) Stations(ctx context.Context) ([]domain.Station, error) {
	return m.stations, nil
}

func (m *mockSnapshots) Shelters(ctx context.Context) ([]domain.Shelter, error) {
	if m.sheltersErr != nil {
		return nil, m.sheltersErr
	}
	return m.shelters, nil
}

func (m *mockSnapshots) Hydrants(ctx context.Context) ([]domain.Hydrant, error) {
	return m.hydrants, nil
}

func (m *mockSnapshots) Hazards(ctx context.Context) ([]domain.Hazard, error) {
	return m.hazards, nil
}

func (m *mockSnapshots) Alerts(ctx context.Context) ([]domain.WeatherAlert, error) {
	return m.alerts, nil
}

func (m *mockSnapshots) Meta(ctx context.Context) ([]domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Snapshot, 0, len(m.meta))
	for _, k := range domain.AllKinds {
		if s, ok := m.meta[k]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockSnapshots) RecordSnapshot(ctx context.Context, snap domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.meta == nil {
		m.meta = map[domain.EntityKind]domain.Snapshot{}
	}
	m.meta[snap.Kind] = snap
	return nil
}

// --- Mock Geocoder / Router ---

type mockGeocoder struct {
	geocodeFn func(ctx context.Context, address string) (domain.GeoPoint, error)
	calls     int
}

func (m *mockGeocoder) Geocode(ctx context.Context, address string) (domain.GeoPoint, error) {
	m.calls++
	if m.geocodeFn != nil {
		return m.geocodeFn(ctx, address)
	}
	return domain.GeoPoint{}, errors.New("not configured")
}

type mockRouter struct {
	routeFn func(ctx context.Context, req ports.RouteRequest) (*domain.RouteResult, error)
	calls   int
	last    ports.RouteRequest
}

func (m *mockRouter) Route(ctx context.Context, req ports.RouteRequest) (*domain.RouteResult, error) {
	m.calls++
	m.last = req
	if m.routeFn != nil {
		return m.routeFn(ctx, req)
	}
	return &domain.RouteResult{Path: []domain.GeoPoint{req.Origin, req.Destination}}, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu          sync.Mutex
	snapshots   []domain.Snapshot
	plans       []*domain.RoutePlan
	deployments []*domain.DeploymentRun
	err         error
}

func (m *mockPublisher) PublishSnapshotRefreshed(ctx context.Context, snap domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, snap)
	return m.err
}

func (m *mockPublisher) PublishRoutePlanned(ctx context.Context, plan *domain.RoutePlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans = append(m.plans, plan)
	return m.err
}

func (m *mockPublisher) PublishDeployment(ctx context.Context, run *domain.DeploymentRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deployments = append(m.deployments, run)
	return m.err
}

// --- Mock CacheService ---

type mockCache struct {
	data map[string][]byte
}

func newMockCache() *mockCache { return &mockCache{data: map[string][]byte{}} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, errors.New("miss")
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

// --- Mock EntitySources ---

type mockSources struct {
	stationsFn func(ctx context.Context) (ports.FetchResult[domain.Station], error)
	sheltersFn func(ctx context.Context) (ports.FetchResult[domain.Shelter], error)
	hydrantsFn func(ctx context.Context) (ports.FetchResult[domain.Hydrant], error)
	hazardsFn  func(ctx context.Context) (ports.FetchResult[domain.Hazard], error)
	alertsFn   func(ctx context.Context) (ports.FetchResult[domain.WeatherAlert], error)
}

func (m *mockSources) FetchStations(ctx context.Context) (ports.FetchResult[domain.Station], error) {
	if m.stationsFn != nil {
		return m.stationsFn(ctx)
	}
	return ports.FetchResult[domain.Station]{}, nil
}

func (m *mockSources) FetchShelters(ctx context.Context) (ports.FetchResult[domain.Shelter], error) {
	if m.sheltersFn != nil {
		return m.sheltersFn(ctx)
	}
	return ports.FetchResult[domain.Shelter]{}, nil
}

func (m *mockSources) FetchHydrants(ctx context.Context) (ports.FetchResult[domain.Hydrant], error) {
	if m.hydrantsFn != nil {
		return m.hydrantsFn(ctx)
	}
	return ports.FetchResult[domain.Hydrant]{}, nil
}

func (m *mockSources) FetchHazards(ctx context.Context) (ports.FetchResult[domain.Hazard], error) {
	if m.hazardsFn != nil {
		return m.hazardsFn(ctx)
	}
	return ports.FetchResult[domain.Hazard]{}, nil
}

func (m *mockSources) FetchAlerts(ctx context.Context) (ports.FetchResult[domain.WeatherAlert], error) {
	if m.alertsFn != nil {
		return m.alertsFn(ctx)
	}
	return ports.FetchResult[domain.WeatherAlert]{}, nil
}
