package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/firewatch/internal/core/domain"
	"github.com/samirrijal/firewatch/internal/core/ports"
	"github.com/samirrijal/firewatch/internal/pkg/geospatial"
	"github.com/samirrijal/firewatch/internal/pkg/metrics"
	"github.com/samirrijal/firewatch/internal/pkg/telemetry"
)

// DeploymentEpsilon keeps the score finite when a hazard sits on a station.
const DeploymentEpsilon = 0.01

// AssignDeployments greedily pairs stations with hazards. Stations are taken
// in input order; each claims the unclaimed hazard with the highest
// intensity/(distance+epsilon). A station with nothing left is skipped.
// Caller slices are never modified.
func AssignDeployments(stations []domain.Station, hazards []domain.Hazard, dist geospatial.DistanceFunc) []domain.Assignment {
	if dist == nil {
		dist = geospatial.Planar
	}

	claimed := make([]bool, len(hazards))
	for i, h := range hazards {
		claimed[i] = !h.Location.Valid()
	}

	var out []domain.Assignment
	for _, s := range stations {
		if !s.Location.Valid() {
			continue
		}

		best := -1
		var bestScore float64
		for i, h := range hazards {
			if claimed[i] {
				continue
			}
			score := h.Intensity / (dist(s.Location, h.Location) + DeploymentEpsilon)
			if math.IsNaN(score) || math.IsInf(score, 0) {
				continue
			}
			if best < 0 || score > bestScore {
				best = i
				bestScore = score
			}
		}
		if best < 0 {
			continue
		}

		claimed[best] = true
		out = append(out, domain.Assignment{
			Station: s,
			Hazard:  hazards[best],
			Score:   bestScore,
		})
	}
	return out
}

// DeploymentService runs the truck-deployment simulation over the current snapshots.
type DeploymentService struct {
	snapshots ports.SnapshotRepository
	publisher ports.EventPublisher
	distance  geospatial.DistanceFunc
}

// NewDeploymentService creates a new DeploymentService. publisher may be nil.
func NewDeploymentService(snapshots ports.SnapshotRepository, publisher ports.EventPublisher, distance geospatial.DistanceFunc) *DeploymentService {
	return &DeploymentService{snapshots: snapshots, publisher: publisher, distance: distance}
}

// Optimal assigns stations to hazards and reports what is left uncovered.
func (s *DeploymentService) Optimal(ctx context.Context) (*domain.DeploymentRun, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanDeployment)
	defer span.End()

	stations, err := s.snapshots.Stations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stations: %w", err)
	}
	hazards, err := s.snapshots.Hazards(ctx)
	if err != nil {
		return nil, fmt.Errorf("load hazards: %w", err)
	}

	assignments := AssignDeployments(stations, hazards, s.distance)

	run := &domain.DeploymentRun{
		ID:                uuid.NewString(),
		Assignments:       assignments,
		ActiveHazards:     len(hazards),
		AssignedHazards:   len(assignments),
		UnassignedHazards: len(hazards) - len(assignments),
		IdleStations:      len(stations) - len(assignments),
		GeneratedAt:       time.Now().UTC(),
	}
	if run.Assignments == nil {
		run.Assignments = []domain.Assignment{}
	}
	metrics.DeploymentRuns.Inc()

	if s.publisher != nil {
		if err := s.publisher.PublishDeployment(ctx, run); err != nil {
			slog.WarnContext(ctx, "publish deployment failed", "run_id", run.ID, "error", err)
		}
	}
	return run, nil
}
