package redis

import (
	"context"
	"encoding/json"
	"time"

	"ai-fortune-report/internal/domain/model"
)

// ReportCache keeps rendered ready reports hot, keyed by session id.
// Pending/failed rows are never cached so pollers see fresh status.
type ReportCache struct {
	client RedisClient
	ttl    time.Duration
}

func NewReportCache(client RedisClient, ttl time.Duration) *ReportCache {
	return &ReportCache{client: client, ttl: ttl}
}

func (c *ReportCache) Store(ctx context.Context, report *model.Report) error {
	if report.Status != model.ReportStatusReady {
		return nil
	}
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "report:"+report.Session, data, c.ttl)
}

func (c *ReportCache) Get(ctx context.Context, session string) (*model.Report, error) {
	data, err := c.client.Get(ctx, "report:"+session)
	if err != nil {
		return nil, err
	}
	var rep model.Report
	if err := json.Unmarshal([]byte(data), &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

func (c *ReportCache) Invalidate(ctx context.Context, session string) error {
	return c.client.Del(ctx, "report:"+session)
}
