package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/attarpos/attarpos/internal/sales"
)

// SummaryWarmupJob pre-populates the per-day sale summary cache so the first
// dashboard request of the morning skips the aggregate query.
type SummaryWarmupJob struct {
	Sales  *sales.Service
	Logger *slog.Logger
	clock  func() time.Time
}

// NewSummaryWarmupJob wires dependencies for the warmup handler.
func NewSummaryWarmupJob(salesSvc *sales.Service, logger *slog.Logger) *SummaryWarmupJob {
	return &SummaryWarmupJob{
		Sales:  salesSvc,
		Logger: logger,
		clock:  time.Now,
	}
}

// Handle processes summary warmup tasks.
func (j *SummaryWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Sales == nil {
		return errors.New("summary warmup: handler not configured")
	}
	var payload SummaryWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Days <= 0 {
		payload.Days = 1
	}

	logger := j.logger().With(slog.Int("days", payload.Days))
	logger.Info("starting summary warmup")

	now := j.now()
	for offset := 0; offset < payload.Days; offset++ {
		day := now.AddDate(0, 0, -offset)
		dayCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
		_, err := j.Sales.Summary(dayCtx, sales.ListFilter{Date: &day})
		cancel()
		if err != nil {
			logger.Error("warm day", slog.String("day", day.Format("2006-01-02")), slog.Any("error", err))
			return err
		}
	}

	logger.Info("completed summary warmup", slog.Duration("duration", time.Since(now)))
	return nil
}

func (j *SummaryWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskSalesSummaryWarmup))
	}
	return slog.Default().With(slog.String("job", TaskSalesSummaryWarmup))
}

func (j *SummaryWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now()
}
