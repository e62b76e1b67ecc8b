package sales

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const summaryTTL = 48 * time.Hour

// SummaryCache keeps per-day sale summaries in Redis so the dashboard read
// path skips the aggregate query on warm days.
type SummaryCache struct {
	client *redis.Client
}

// NewSummaryCache constructs SummaryCache.
func NewSummaryCache(client *redis.Client) *SummaryCache {
	return &SummaryCache{client: client}
}

// Get returns the cached summary for the day, or nil on a miss.
func (c *SummaryCache) Get(ctx context.Context, day time.Time) (*Summary, error) {
	payload, err := c.client.Get(ctx, summaryKey(day)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var summary Summary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Set stores the day's summary.
func (c *SummaryCache) Set(ctx context.Context, day time.Time, summary Summary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, summaryKey(day), payload, summaryTTL).Err()
}

// Invalidate drops the day's cached summary after a new sale lands.
func (c *SummaryCache) Invalidate(ctx context.Context, day time.Time) error {
	return c.client.Del(ctx, summaryKey(day)).Err()
}

func summaryKey(day time.Time) string {
	return "sales:summary:" + day.Format("2006-01-02")
}
