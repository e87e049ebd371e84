package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/zimroute/internal/core/usecases"
)

// DefaultRefreshLimit bounds how many routes one run re-fetches.
const DefaultRefreshLimit = 50

// TrafficRefreshInput is the input for the traffic refresh workflow.
type TrafficRefreshInput struct {
	Limit int
}

// TrafficRefreshWorkflow re-fetches traffic for recently saved routes. It runs
// on a cron schedule; each run is independent.
func TrafficRefreshWorkflow(ctx workflow.Context, input TrafficRefreshInput) (usecases.RefreshReport, error) {
	logger := workflow.GetLogger(ctx)
	if input.Limit <= 0 {
		input.Limit = DefaultRefreshLimit
	}
	logger.Info("Starting traffic refresh workflow", "limit", input.Limit)

	actOpts := workflow.ActivityOptions{
		// provider calls are 10s each and sequential
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: 5 * time.Second,
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var report usecases.RefreshReport
	if err := workflow.ExecuteActivity(ctx, ActivityRefreshRecentRoutes, input.Limit).Get(ctx, &report); err != nil {
		logger.Error("traffic refresh failed", "error", err)
		return report, err
	}

	logger.Info("Traffic refresh completed", "checked", report.Checked, "updated", report.Updated)
	return report, nil
}
