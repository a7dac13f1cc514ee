package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/samirrijal/firewatch/internal/core/domain"
)

// SnapshotRepo implements ports.SnapshotRepository in process memory.
// Readers receive copies, so a concurrent Replace never changes a slice a
// caller already holds.
type SnapshotRepo struct {
	mu       sync.RWMutex
	stations []domain.Station
	shelters []domain.Shelter
	hydrants []domain.Hydrant
	hazards  []domain.Hazard
	alerts   []domain.WeatherAlert
	meta     map[domain.EntityKind]domain.Snapshot
}

// NewSnapshotRepo creates an empty SnapshotRepo.
func NewSnapshotRepo() *SnapshotRepo {
	return &SnapshotRepo{meta: make(map[domain.EntityKind]domain.Snapshot)}
}

func (r *SnapshotRepo) ReplaceStations(_ context.Context, v []domain.Station) error {
	r.mu.Lock()
	r.stations = slices.Clone(v)
	r.mu.Unlock()
	return nil
}

func (r *SnapshotRepo) ReplaceShelters(_ context.Context, v []domain.Shelter) error {
	r.mu.Lock()
	r.shelters = slices.Clone(v)
	r.mu.Unlock()
	return nil
}

func (r *SnapshotRepo) ReplaceHydrants(_ context.Context, v []domain.Hydrant) error {
	r.mu.Lock()
	r.hydrants = slices.Clone(v)
	r.mu.Unlock()
	return nil
}

func (r *SnapshotRepo) ReplaceHazards(_ context.Context, v []domain.Hazard) error {
	r.mu.Lock()
	r.hazards = slices.Clone(v)
	r.mu.Unlock()
	return nil
}

func (r *SnapshotRepo) ReplaceAlerts(_ context.Context, v []domain.WeatherAlert) error {
	r.mu.Lock()
	r.alerts = slices.Clone(v)
	r.mu.Unlock()
	return nil
}

func (r *SnapshotRepo) Stations(_ context.Context) ([]domain.Station, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.stations), nil
}

func (r *SnapshotRepo) Shelters(_ context.Context) ([]domain.Shelter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.shelters), nil
}

func (r *SnapshotRepo) Hydrants(_ context.Context) ([]domain.Hydrant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.hydrants), nil
}

func (r *SnapshotRepo) Hazards(_ context.Context) ([]domain.Hazard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.hazards), nil
}

func (r *SnapshotRepo) Alerts(_ context.Context) ([]domain.WeatherAlert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.alerts), nil
}

// Meta returns recorded snapshots in AllKinds order.
func (r *SnapshotRepo) Meta(_ context.Context) ([]domain.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Snapshot, 0, len(r.meta))
	for _, k := range domain.AllKinds {
		if s, ok := r.meta[k]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *SnapshotRepo) RecordSnapshot(_ context.Context, snap domain.Snapshot) error {
	r.mu.Lock()
	r.meta[snap.Kind] = snap
	r.mu.Unlock()
	return nil
}
