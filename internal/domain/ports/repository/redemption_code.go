package repository

import (
	"context"
	"time"

	"ai-fortune-report/internal/domain/model"
)

// RedemptionCodeRepository is the port for the redemption ledger.
type RedemptionCodeRepository interface {
	// Save inserts a new code. Codes are never deleted.
	Save(ctx context.Context, tx Tx, code *model.RedemptionCode) error

	// FindByCodeAndOwner looks up a code by its normalized string AND owner.
	// A code bound to a different owner is indistinguishable from a missing
	// one: both return domain.ErrNotFound.
	FindByCodeAndOwner(ctx context.Context, tx Tx, code, ownerID string) (*model.RedemptionCode, error)

	// MarkUsed flips used=true/used_at only if the stored row is still
	// unused. Returns domain.ErrCodeAlreadyUsed when the conditional update
	// matches no row.
	MarkUsed(ctx context.Context, tx Tx, codeID string, usedAt time.Time) error

	// ListByOwner returns all codes issued to a user, newest first.
	ListByOwner(ctx context.Context, tx Tx, ownerID string) ([]*model.RedemptionCode, error)
}
