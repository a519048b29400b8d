package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ai-fortune-report/internal/domain"
	"ai-fortune-report/internal/domain/model"
	"ai-fortune-report/internal/domain/ports/repository"
	"ai-fortune-report/internal/infra/metrics"
)

var _ repository.UnlockRecordRepository = (*unlockRepo)(nil)

type unlockRepo struct {
	pool *pgxpool.Pool
}

func NewUnlockRepo(pool *pgxpool.Pool) repository.UnlockRecordRepository {
	return &unlockRepo{pool: pool}
}

// Insert creates the unlock record. The unlock ledger carries
// UNIQUE (owner_id, report_session); the 23505 from a concurrent duplicate
// surfaces as ErrAlreadyUnlocked so the application check stays advisory.
func (r *unlockRepo) Insert(ctx context.Context, tx repository.Tx, rec *model.UnlockRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	const q = `
INSERT INTO unlock_records (id, owner_id, report_session, code_id, unlocked_at)
VALUES ($1, $2, $3, $4, $5);
`
	start := time.Now()
	_, err := execSQL(ctx, r.pool, tx, q, rec.ID, rec.OwnerID, rec.ReportSession, rec.CodeID, rec.UnlockedAt)
	metrics.ObserveDB("unlocks_insert", start, err == nil)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyUnlocked
	}
	return err
}

func (r *unlockRepo) Find(ctx context.Context, tx repository.Tx, ownerID, reportSession string) (*model.UnlockRecord, error) {
	const q = `
SELECT id, owner_id, report_session, code_id, unlocked_at
  FROM unlock_records
 WHERE owner_id = $1 AND report_session = $2;
`
	start := time.Now()
	row, err := pickRow(ctx, r.pool, tx, q, ownerID, reportSession)
	if err != nil {
		metrics.ObserveDB("unlocks_find", start, false)
		return nil, err
	}

	var rec model.UnlockRecord
	err = row.Scan(&rec.ID, &rec.OwnerID, &rec.ReportSession, &rec.CodeID, &rec.UnlockedAt)
	metrics.ObserveDB("unlocks_find", start, err == nil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &rec, nil
}
