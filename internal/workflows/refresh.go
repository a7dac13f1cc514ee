package workflows

import (
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/firewatch/internal/core/domain"
)

// RefreshWorkflowID is the fixed ID of the scheduled refresh run, so only
// one cron schedule exists per namespace.
const RefreshWorkflowID = "firewatch-snapshot-refresh"

// StartOptions schedules the refresh workflow on queue every interval.
func StartOptions(queue string, interval time.Duration) client.StartWorkflowOptions {
	return client.StartWorkflowOptions{
		ID:           RefreshWorkflowID,
		TaskQueue:    queue,
		CronSchedule: "@every " + interval.String(),
	}
}

// RefreshInput is the input for the refresh workflow. Empty Kinds means
// every kind.
type RefreshInput struct {
	Kinds []string
}

// RefreshResult reports what each run refreshed.
type RefreshResult struct {
	Refreshed   []domain.Snapshot
	Failed      map[string]string
	Assignments int
}

// RefreshSnapshotsWorkflow refreshes each kind in its own activity. One
// failing kind does not stop the others. When stations or hazards changed,
// the deployment simulation is recomputed.
func RefreshSnapshotsWorkflow(ctx workflow.Context, input RefreshInput) (*RefreshResult, error) {
	logger := workflow.GetLogger(ctx)

	kinds := input.Kinds
	if len(kinds) == 0 {
		for _, k := range domain.AllKinds {
			kinds = append(kinds, string(k))
		}
	}
	logger.Info("Starting refresh workflow", "kinds", kinds)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var a *RefreshActivities
	futures := make([]workflow.Future, len(kinds))
	for i, kind := range kinds {
		futures[i] = workflow.ExecuteActivity(ctx, a.RefreshSnapshot, kind)
	}

	result := &RefreshResult{Failed: map[string]string{}}
	recompute := false
	for i, f := range futures {
		var snap domain.Snapshot
		if err := f.Get(ctx, &snap); err != nil {
			logger.Warn("refresh failed, keeping previous snapshot", "kind", kinds[i], "error", err)
			result.Failed[kinds[i]] = err.Error()
			continue
		}
		result.Refreshed = append(result.Refreshed, snap)
		if snap.Kind == domain.KindHazards || snap.Kind == domain.KindStations {
			recompute = true
		}
	}

	if recompute {
		if err := workflow.ExecuteActivity(ctx, a.RecomputeDeployment).Get(ctx, &result.Assignments); err != nil {
			logger.Warn("deployment recompute failed", "error", err)
		}
	}

	logger.Info("Refresh workflow finished", "refreshed", len(result.Refreshed), "failed", len(result.Failed))
	return result, nil
}
