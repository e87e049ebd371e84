package workflows

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"

	"github.com/samirrijal/zimroute/internal/core/usecases"
)

// ActivityRefreshRecentRoutes is the registered name of TrafficActivities.RefreshRecentRoutes.
const ActivityRefreshRecentRoutes = "RefreshRecentRoutes"

// Refresher re-estimates saved route durations.
type Refresher interface {
	Refresh(ctx context.Context, limit int) (usecases.RefreshReport, error)
}

// TrafficActivities holds the activity implementations for the traffic refresh workflow.
type TrafficActivities struct {
	Refresher Refresher
}

// RefreshRecentRoutes refreshes up to limit of the most recently saved routes.
func (a *TrafficActivities) RefreshRecentRoutes(ctx context.Context, limit int) (usecases.RefreshReport, error) {
	if a.Refresher == nil {
		return usecases.RefreshReport{}, fmt.Errorf("traffic refresher is not configured")
	}
	report, err := a.Refresher.Refresh(ctx, limit)
	if err != nil {
		return report, fmt.Errorf("refresh recent routes: %w", err)
	}
	activity.GetLogger(ctx).Info("traffic refresh finished",
		"checked", report.Checked, "updated", report.Updated, "failed", report.Failed)
	return report, nil
}
