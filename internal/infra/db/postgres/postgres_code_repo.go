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

// Ensure implementation satisfies the interface.
var _ repository.RedemptionCodeRepository = (*codeRepo)(nil)

type codeRepo struct {
	pool *pgxpool.Pool
}

func NewCodeRepo(pool *pgxpool.Pool) repository.RedemptionCodeRepository {
	return &codeRepo{pool: pool}
}

func (r *codeRepo) Save(ctx context.Context, tx repository.Tx, code *model.RedemptionCode) error {
	if code.ID == "" {
		code.ID = uuid.NewString()
	}
	const q = `
INSERT INTO redemption_codes (id, code, owner_id, used, used_at, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7);
`
	start := time.Now()
	_, err := execSQL(ctx, r.pool, tx, q,
		code.ID, code.Code, code.OwnerID, code.Used, code.UsedAt, code.ExpiresAt, code.CreatedAt,
	)
	metrics.ObserveDB("codes_save", start, err == nil)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

// FindByCodeAndOwner is the redemption-flow lookup. A code that exists but
// belongs to another owner must look exactly like a missing code.
func (r *codeRepo) FindByCodeAndOwner(ctx context.Context, tx repository.Tx, code, ownerID string) (*model.RedemptionCode, error) {
	const q = `
SELECT id, code, owner_id, used, used_at, expires_at, created_at
  FROM redemption_codes
 WHERE code = $1 AND owner_id = $2;
`
	start := time.Now()
	row, err := pickRow(ctx, r.pool, tx, q, code, ownerID)
	if err != nil {
		metrics.ObserveDB("codes_find", start, false)
		return nil, err
	}

	var c model.RedemptionCode
	err = row.Scan(&c.ID, &c.Code, &c.OwnerID, &c.Used, &c.UsedAt, &c.ExpiresAt, &c.CreatedAt)
	metrics.ObserveDB("codes_find", start, err == nil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &c, nil
}

// MarkUsed flips the used flag only when the row is still unused, so two
// concurrent redemptions of the same code serialize on the row and exactly
// one wins.
func (r *codeRepo) MarkUsed(ctx context.Context, tx repository.Tx, codeID string, usedAt time.Time) error {
	const q = `
UPDATE redemption_codes
   SET used = TRUE, used_at = $2
 WHERE id = $1 AND used = FALSE;
`
	start := time.Now()
	tag, err := execSQL(ctx, r.pool, tx, q, codeID, usedAt)
	metrics.ObserveDB("codes_mark_used", start, err == nil)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCodeAlreadyUsed
	}
	return nil
}

func (r *codeRepo) ListByOwner(ctx context.Context, tx repository.Tx, ownerID string) ([]*model.RedemptionCode, error) {
	const q = `
SELECT id, code, owner_id, used, used_at, expires_at, created_at
  FROM redemption_codes
 WHERE owner_id = $1
 ORDER BY created_at DESC;
`
	rows, err := queryRows(ctx, r.pool, tx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.RedemptionCode
	for rows.Next() {
		var c model.RedemptionCode
		if err := rows.Scan(&c.ID, &c.Code, &c.OwnerID, &c.Used, &c.UsedAt, &c.ExpiresAt, &c.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
