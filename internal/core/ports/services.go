package ports

import (
	"context"

	"github.com/samirrijal/firewatch/internal/core/domain"
)

// Geocoder resolves free-text addresses to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.GeoPoint, error)
}

// RouteRequest is what the planner hands to the routing provider.
type RouteRequest struct {
	Origin       domain.GeoPoint
	Destination  domain.GeoPoint
	AvoidRegions []domain.AvoidRegion
}

// Router computes a path between two points. Provider credentials are the
// implementation's concern and never part of the request.
type Router interface {
	Route(ctx context.Context, req RouteRequest) (*domain.RouteResult, error)
}

// RouteForwarder relays an opaque routing request body to the provider.
type RouteForwarder interface {
	Forward(ctx context.Context, body []byte) (status int, respBody []byte, err error)
}

// FetchResult is one pulled collection plus the count of records rejected
// at the ingestion boundary.
type FetchResult[T any] struct {
	Items   []T
	Dropped int
}

// EntitySources pulls full collections from the upstream data providers.
type EntitySources interface {
	FetchStations(ctx context.Context) (FetchResult[domain.Station], error)
	FetchShelters(ctx context.Context) (FetchResult[domain.Shelter], error)
	FetchHydrants(ctx context.Context) (FetchResult[domain.Hydrant], error)
	FetchHazards(ctx context.Context) (FetchResult[domain.Hazard], error)
	FetchAlerts(ctx context.Context) (FetchResult[domain.WeatherAlert], error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishSnapshotRefreshed(ctx context.Context, snap domain.Snapshot) error
	PublishRoutePlanned(ctx context.Context, plan *domain.RoutePlan) error
	PublishDeployment(ctx context.Context, run *domain.DeploymentRun) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeSnapshotRefreshed(ctx context.Context, handler func(ctx context.Context, snap domain.Snapshot) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
