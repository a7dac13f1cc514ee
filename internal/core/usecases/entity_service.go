package usecases

import (
	"context"
	"fmt"

	"github.com/samirrijal/firewatch/internal/core/domain"
	"github.com/samirrijal/firewatch/internal/core/ports"
	"github.com/samirrijal/firewatch/internal/pkg/geospatial"
	"github.com/samirrijal/firewatch/internal/pkg/telemetry"
)

// EntityService serves reads over the current snapshots.
type EntityService struct {
	snapshots ports.SnapshotRepository
	avoid     geospatial.AvoidOptions
	distance  geospatial.DistanceFunc
}

// NewEntityService creates a new EntityService.
func NewEntityService(snapshots ports.SnapshotRepository, avoid geospatial.AvoidOptions, distance geospatial.DistanceFunc) *EntityService {
	return &EntityService{snapshots: snapshots, avoid: avoid, distance: distance}
}

func (s *EntityService) Stations(ctx context.Context) ([]domain.Station, error) {
	return s.snapshots.Stations(ctx)
}

func (s *EntityService) Shelters(ctx context.Context) ([]domain.Shelter, error) {
	return s.snapshots.Shelters(ctx)
}

func (s *EntityService) Hydrants(ctx context.Context) ([]domain.Hydrant, error) {
	return s.snapshots.Hydrants(ctx)
}

func (s *EntityService) Hazards(ctx context.Context) ([]domain.Hazard, error) {
	return s.snapshots.Hazards(ctx)
}

func (s *EntityService) Alerts(ctx context.Context) ([]domain.WeatherAlert, error) {
	return s.snapshots.Alerts(ctx)
}

// Meta returns the last refresh per kind.
func (s *EntityService) Meta(ctx context.Context) ([]domain.Snapshot, error) {
	return s.snapshots.Meta(ctx)
}

// NearestShelter returns the shelter closest to origin.
func (s *EntityService) NearestShelter(ctx context.Context, origin domain.GeoPoint) (*domain.Shelter, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanNearestShelter)
	defer span.End()

	if !origin.InRange() {
		return nil, domain.InputError("origin %v,%v is not a valid coordinate", origin.Lat, origin.Lon)
	}
	shelters, err := s.snapshots.Shelters(ctx)
	if err != nil {
		return nil, fmt.Errorf("load shelters: %w", err)
	}
	shelter, ok := geospatial.NearestBy(origin, shelters, s.distance)
	if !ok {
		return nil, domain.EmptyResultError("no shelter available")
	}
	return &shelter, nil
}

// AvoidRegions builds avoid regions from the current hazards. Zero-valued
// fields in override fall back to the configured options.
func (s *EntityService) AvoidRegions(ctx context.Context, override geospatial.AvoidOptions) ([]domain.AvoidRegion, error) {
	opts := s.avoid
	if override.MaxCount > 0 {
		opts.MaxCount = override.MaxCount
	}
	if override.RadiusKm > 0 {
		opts.RadiusKm = override.RadiusKm
	}
	if override.Shape != "" {
		opts.Shape = override.Shape
	}
	if override.Sides > 0 {
		opts.Sides = override.Sides
	}
	if override.BoxDeltaDeg > 0 {
		opts.BoxDeltaDeg = override.BoxDeltaDeg
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanAvoidRegions)
	defer span.End()

	hazards, err := s.snapshots.Hazards(ctx)
	if err != nil {
		return nil, fmt.Errorf("load hazards: %w", err)
	}
	return geospatial.BuildAvoidRegions(hazards, opts)
}
