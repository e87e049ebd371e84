package workflows

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/client"
)

// RefreshWorkflowID identifies the single cron execution.
const RefreshWorkflowID = "traffic-refresh-cron"

// ScheduleOptions configures the cron execution.
type ScheduleOptions struct {
	TaskQueue string
	Cron      string // e.g. "*/5 * * * *"
	Limit     int
}

// StartOptions builds the workflow start options for the cron execution.
func (o ScheduleOptions) StartOptions() client.StartWorkflowOptions {
	return client.StartWorkflowOptions{
		ID:           RefreshWorkflowID,
		TaskQueue:    o.TaskQueue,
		CronSchedule: o.Cron,
	}
}

// Starter is the subset of client.Client used to start workflows.
type Starter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// EnsureRefreshSchedule starts the cron workflow. An execution that is already
// running is reused.
func EnsureRefreshSchedule(ctx context.Context, c Starter, opts ScheduleOptions) (string, error) {
	if opts.TaskQueue == "" || opts.Cron == "" {
		return "", fmt.Errorf("task queue and cron schedule are required")
	}
	run, err := c.ExecuteWorkflow(ctx, opts.StartOptions(), TrafficRefreshWorkflow, TrafficRefreshInput{Limit: opts.Limit})
	if err != nil {
		return "", fmt.Errorf("start traffic refresh workflow: %w", err)
	}
	return run.GetRunID(), nil
}
