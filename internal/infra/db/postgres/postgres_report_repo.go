package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ai-fortune-report/internal/domain"
	"ai-fortune-report/internal/domain/model"
	"ai-fortune-report/internal/domain/ports/repository"
	"ai-fortune-report/internal/infra/metrics"
)

var _ repository.ReportRepository = (*reportRepo)(nil)

type reportRepo struct {
	pool *pgxpool.Pool
}

func NewReportRepo(pool *pgxpool.Pool) repository.ReportRepository {
	return &reportRepo{pool: pool}
}

// Upsert writes the report row keyed by session. Profile and recommendations
// are stored as JSONB.
func (r *reportRepo) Upsert(ctx context.Context, tx repository.Tx, report *model.Report) error {
	profile, err := json.Marshal(report.Profile)
	if err != nil {
		return err
	}
	recs, err := json.Marshal(report.Recommendations)
	if err != nil {
		return err
	}
	report.UpdatedAt = time.Now()

	const q = `
INSERT INTO reports (session, owner_id, profile, narrative, recommendations, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (session) DO UPDATE SET
  profile = EXCLUDED.profile,
  narrative = EXCLUDED.narrative,
  recommendations = EXCLUDED.recommendations,
  status = EXCLUDED.status,
  updated_at = EXCLUDED.updated_at;
`
	start := time.Now()
	_, err = execSQL(ctx, r.pool, tx, q,
		report.Session, report.OwnerID, profile, report.Narrative, recs, string(report.Status), report.CreatedAt, report.UpdatedAt,
	)
	metrics.ObserveDB("reports_upsert", start, err == nil)
	return err
}

func (r *reportRepo) FindBySession(ctx context.Context, tx repository.Tx, session string) (*model.Report, error) {
	const q = `
SELECT session, owner_id, profile, narrative, recommendations, status, created_at, updated_at
  FROM reports
 WHERE session = $1;
`
	start := time.Now()
	row, err := pickRow(ctx, r.pool, tx, q, session)
	if err != nil {
		metrics.ObserveDB("reports_find", start, false)
		return nil, err
	}

	rep, err := scanReport(row)
	metrics.ObserveDB("reports_find", start, err == nil)
	return rep, err
}

func (r *reportRepo) ListByOwner(ctx context.Context, tx repository.Tx, ownerID string, offset, limit int) ([]*model.Report, error) {
	const q = `
SELECT session, owner_id, profile, narrative, recommendations, status, created_at, updated_at
  FROM reports
 WHERE owner_id = $1
 ORDER BY created_at DESC
OFFSET $2 LIMIT $3;
`
	rows, err := queryRows(ctx, r.pool, tx, q, ownerID, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

func scanReport(row pgx.Row) (*model.Report, error) {
	var (
		rep     model.Report
		status  string
		profile []byte
		recs    []byte
	)
	err := row.Scan(&rep.Session, &rep.OwnerID, &profile, &rep.Narrative, &recs, &status, &rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if err := json.Unmarshal(profile, &rep.Profile); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	if len(recs) > 0 {
		if err := json.Unmarshal(recs, &rep.Recommendations); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	rep.Status = model.ReportStatus(status)
	return &rep, nil
}
