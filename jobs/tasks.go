package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardWarmup refreshes cached upstream payloads.
	TaskDashboardWarmup = "dashboard:warmup"
)

// WarmupPayload selects what a warmup run fetches. Empty Periods means all
// periods.
type WarmupPayload struct {
	Periods      []string `json:"periods,omitempty"`
	SkipInsights bool     `json:"skip_insights,omitempty"`
}

// NewWarmupTask constructs a warmup task.
func NewWarmupTask(payload WarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, data), nil
}
