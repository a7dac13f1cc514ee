package ports

import (
	"context"

	"github.com/samirrijal/firewatch/internal/core/domain"
)

// SnapshotRepository holds the current entity snapshots. Every Replace*
// call swaps the whole collection; there is no merge.
type SnapshotRepository interface {
	ReplaceStations(ctx context.Context, stations []domain.Station) error
	ReplaceShelters(ctx context.Context, shelters []domain.Shelter) error
	ReplaceHydrants(ctx context.Context, hydrants []domain.Hydrant) error
	ReplaceHazards(ctx context.Context, hazards []domain.Hazard) error
	ReplaceAlerts(ctx context.Context, alerts []domain.WeatherAlert) error

	Stations(ctx context.Context) ([]domain.Station, error)
	Shelters(ctx context.Context) ([]domain.Shelter, error)
	Hydrants(ctx context.Context) ([]domain.Hydrant, error)
	Hazards(ctx context.Context) ([]domain.Hazard, error)
	Alerts(ctx context.Context) ([]domain.WeatherAlert, error)

	// Meta returns the last recorded refresh per kind.
	Meta(ctx context.Context) ([]domain.Snapshot, error)
	RecordSnapshot(ctx context.Context, snap domain.Snapshot) error
}
