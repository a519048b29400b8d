package postgres

import (
	"context"
	"time"

	"ai-fortune-report/internal/domain/model"
	"ai-fortune-report/internal/domain/ports/repository"
	red "ai-fortune-report/internal/infra/redis"
)

// mockRedisClient implements redis.RedisClient with overridable behavior.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc    func(ctx context.Context, keys ...string) error
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
}

var _ red.RedisClient = (*mockRedisClient)(nil)

func (m *mockRedisClient) Ping(ctx context.Context) error { return nil }
func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return "", nil
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, expiration)
	}
	return nil
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc != nil {
		return m.DelFunc(ctx, keys...)
	}
	return nil
}
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	if m.IncrFunc != nil {
		return m.IncrFunc(ctx, key)
	}
	return 0, nil
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	if m.ExpireFunc != nil {
		return m.ExpireFunc(ctx, key, expiration)
	}
	return nil
}
func (m *mockRedisClient) Close() error { return nil }

// mockInnerReportRepo stands in for the Postgres-backed report repository.
type mockInnerReportRepo struct {
	UpsertFunc        func(ctx context.Context, tx repository.Tx, report *model.Report) error
	FindBySessionFunc func(ctx context.Context, tx repository.Tx, session string) (*model.Report, error)
	ListByOwnerFunc   func(ctx context.Context, tx repository.Tx, ownerID string, offset, limit int) ([]*model.Report, error)
}

var _ repository.ReportRepository = (*mockInnerReportRepo)(nil)

func (m *mockInnerReportRepo) Upsert(ctx context.Context, tx repository.Tx, report *model.Report) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, tx, report)
	}
	return nil
}
func (m *mockInnerReportRepo) FindBySession(ctx context.Context, tx repository.Tx, session string) (*model.Report, error) {
	if m.FindBySessionFunc != nil {
		return m.FindBySessionFunc(ctx, tx, session)
	}
	return nil, nil
}
func (m *mockInnerReportRepo) ListByOwner(ctx context.Context, tx repository.Tx, ownerID string, offset, limit int) ([]*model.Report, error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ctx, tx, ownerID, offset, limit)
	}
	return nil, nil
}
