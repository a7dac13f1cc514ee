package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samirrijal/firewatch/internal/core/domain"
	"github.com/samirrijal/firewatch/internal/core/ports"
	"github.com/samirrijal/firewatch/internal/pkg/metrics"
	"github.com/samirrijal/firewatch/internal/pkg/telemetry"
)

// RefreshOutcome is the result of refreshing one snapshot kind.
type RefreshOutcome struct {
	Kind     domain.EntityKind `json:"kind"`
	Snapshot *domain.Snapshot  `json:"snapshot,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// SnapshotService pulls entity collections from their sources and replaces
// the stored snapshots wholesale.
type SnapshotService struct {
	sources   ports.EntitySources
	snapshots ports.SnapshotRepository
	publisher ports.EventPublisher
	now       func() time.Time
}

// NewSnapshotService creates a new SnapshotService. publisher may be nil.
func NewSnapshotService(sources ports.EntitySources, snapshots ports.SnapshotRepository, publisher ports.EventPublisher) *SnapshotService {
	return &SnapshotService{sources: sources, snapshots: snapshots, publisher: publisher, now: time.Now}
}

// Refresh refreshes the given kinds (all kinds when none are given). A
// failing kind keeps its previous snapshot and is reported in its outcome;
// the other kinds still refresh.
func (s *SnapshotService) Refresh(ctx context.Context, kinds ...domain.EntityKind) []RefreshOutcome {
	if len(kinds) == 0 {
		kinds = domain.AllKinds
	}

	outcomes := make([]RefreshOutcome, 0, len(kinds))
	for _, kind := range kinds {
		snap, err := s.RefreshKind(ctx, kind)
		o := RefreshOutcome{Kind: kind}
		if err != nil {
			o.Error = err.Error()
			slog.ErrorContext(ctx, "snapshot refresh failed", "kind", kind, "error", err)
		} else {
			o.Snapshot = &snap
		}
		outcomes = append(outcomes, o)
	}
	return outcomes
}

// RefreshKind fetches one collection and replaces its snapshot.
func (s *SnapshotService) RefreshKind(ctx context.Context, kind domain.EntityKind) (snap domain.Snapshot, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanSnapshotRefresh)
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
		}
		metrics.SnapshotRefreshes.WithLabelValues(string(kind), outcome).Inc()
		span.End()
	}()

	var count, dropped int
	switch kind {
	case domain.KindStations:
		res, err := s.sources.FetchStations(ctx)
		if err != nil {
			return snap, err
		}
		if err := s.snapshots.ReplaceStations(ctx, res.Items); err != nil {
			return snap, fmt.Errorf("replace stations: %w", err)
		}
		count, dropped = len(res.Items), res.Dropped
	case domain.KindShelters:
		res, err := s.sources.FetchShelters(ctx)
		if err != nil {
			return snap, err
		}
		if err := s.snapshots.ReplaceShelters(ctx, res.Items); err != nil {
			return snap, fmt.Errorf("replace shelters: %w", err)
		}
		count, dropped = len(res.Items), res.Dropped
	case domain.KindHydrants:
		res, err := s.sources.FetchHydrants(ctx)
		if err != nil {
			return snap, err
		}
		if err := s.snapshots.ReplaceHydrants(ctx, res.Items); err != nil {
			return snap, fmt.Errorf("replace hydrants: %w", err)
		}
		count, dropped = len(res.Items), res.Dropped
	case domain.KindHazards:
		res, err := s.sources.FetchHazards(ctx)
		if err != nil {
			return snap, err
		}
		if err := s.snapshots.ReplaceHazards(ctx, res.Items); err != nil {
			return snap, fmt.Errorf("replace hazards: %w", err)
		}
		count, dropped = len(res.Items), res.Dropped
	case domain.KindAlerts:
		res, err := s.sources.FetchAlerts(ctx)
		if err != nil {
			return snap, err
		}
		if err := s.snapshots.ReplaceAlerts(ctx, res.Items); err != nil {
			return snap, fmt.Errorf("replace alerts: %w", err)
		}
		count, dropped = len(res.Items), res.Dropped
	default:
		return snap, domain.InputError("unknown snapshot kind %q", kind)
	}

	snap = domain.Snapshot{Kind: kind, Count: count, Dropped: dropped, FetchedAt: s.now().UTC()}
	if err := s.snapshots.RecordSnapshot(ctx, snap); err != nil {
		return snap, fmt.Errorf("record snapshot: %w", err)
	}

	metrics.SnapshotSize.WithLabelValues(string(kind)).Set(float64(count))
	if dropped > 0 {
		metrics.SnapshotDropped.WithLabelValues(string(kind)).Add(float64(dropped))
	}
	slog.InfoContext(ctx, "snapshot refreshed", "kind", kind, "count", count, "dropped", dropped)

	if s.publisher != nil {
		if err := s.publisher.PublishSnapshotRefreshed(ctx, snap); err != nil {
			slog.WarnContext(ctx, "publish snapshot event failed", "kind", kind, "error", err)
		}
	}
	return snap, nil
}

// Start refreshes every kind immediately and then every interval until ctx
// is cancelled. It blocks; run it in a goroutine.
func (s *SnapshotService) Start(ctx context.Context, interval time.Duration) {
	s.Refresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}
