package postgres

import (
	"context"

	"github.com/rs/zerolog"

	"ai-fortune-report/internal/domain/model"
	"ai-fortune-report/internal/domain/ports/repository"
	red "ai-fortune-report/internal/infra/redis"
)

var _ repository.ReportRepository = (*cachedReportRepo)(nil)

// cachedReportRepo decorates the Postgres report repository with a Redis
// read-through cache. Cache failures degrade to the database, never to errors.
type cachedReportRepo struct {
	inner repository.ReportRepository
	cache *red.ReportCache
	log   *zerolog.Logger
}

func NewCachedReportRepo(inner repository.ReportRepository, cache *red.ReportCache, log *zerolog.Logger) repository.ReportRepository {
	return &cachedReportRepo{inner: inner, cache: cache, log: log}
}

func (r *cachedReportRepo) Upsert(ctx context.Context, tx repository.Tx, report *model.Report) error {
	if err := r.inner.Upsert(ctx, tx, report); err != nil {
		return err
	}
	if err := r.cache.Store(ctx, report); err != nil {
		r.log.Warn().Err(err).Str("session", report.Session).Msg("report cache store failed")
	}
	return nil
}

func (r *cachedReportRepo) FindBySession(ctx context.Context, tx repository.Tx, session string) (*model.Report, error) {
	// Transactional reads bypass the cache.
	if tx == nil {
		if rep, err := r.cache.Get(ctx, session); err == nil {
			return rep, nil
		} else if !red.IsNil(err) {
			r.log.Warn().Err(err).Str("session", session).Msg("report cache get failed")
		}
	}
	rep, err := r.inner.FindBySession(ctx, tx, session)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		if cerr := r.cache.Store(ctx, rep); cerr != nil {
			r.log.Warn().Err(cerr).Str("session", session).Msg("report cache backfill failed")
		}
	}
	return rep, nil
}

func (r *cachedReportRepo) ListByOwner(ctx context.Context, tx repository.Tx, ownerID string, offset, limit int) ([]*model.Report, error) {
	return r.inner.ListByOwner(ctx, tx, ownerID, offset, limit)
}
