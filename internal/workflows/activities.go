package workflows

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"

	"github.com/samirrijal/firewatch/internal/core/domain"
	"github.com/samirrijal/firewatch/internal/core/usecases"
)

// RefreshActivities holds the activity implementations for the snapshot
// refresh workflow.
type RefreshActivities struct {
	Snapshots   *usecases.SnapshotService
	Deployments *usecases.DeploymentService
}

// RefreshSnapshot refreshes one entity kind. A failing source returns an
// error so the workflow retry policy applies; the stored snapshot is left
// untouched.
func (a *RefreshActivities) RefreshSnapshot(ctx context.Context, kind string) (domain.Snapshot, error) {
	snap, err := a.Snapshots.RefreshKind(ctx, domain.EntityKind(kind))
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("refresh %s: %w", kind, err)
	}
	activity.GetLogger(ctx).Info("snapshot refreshed", "kind", kind, "count", snap.Count, "dropped", snap.Dropped)
	return snap, nil
}

// RecomputeDeployment runs the deployment simulation over the fresh
// snapshots and returns the number of assignments.
func (a *RefreshActivities) RecomputeDeployment(ctx context.Context) (int, error) {
	if a.Deployments == nil {
		return 0, nil
	}
	run, err := a.Deployments.Optimal(ctx)
	if err != nil {
		return 0, fmt.Errorf("deployment: %w", err)
	}
	return run.AssignedHazards, nil
}
