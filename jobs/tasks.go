package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSalesSummaryWarmup is the task type for warming daily sale summaries.
	TaskSalesSummaryWarmup = "sales:summary_warmup"
)

// SummaryWarmupPayload selects how many trailing days to warm.
type SummaryWarmupPayload struct {
	Days int `json:"days"`
}

// NewSummaryWarmupTask constructs an Asynq task for summary warmup.
func NewSummaryWarmupTask(days int) (*asynq.Task, error) {
	data, err := json.Marshal(SummaryWarmupPayload{Days: days})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSalesSummaryWarmup, data), nil
}
