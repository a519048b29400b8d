package repository

import (
	"context"

	"ai-fortune-report/internal/domain/model"
)

// UnlockRecordRepository is the port for the unlock ledger. Insert-only.
type UnlockRecordRepository interface {
	// Insert creates the record. The table enforces UNIQUE(owner_id,
	// report_session); a conflict returns domain.ErrAlreadyUnlocked.
	Insert(ctx context.Context, tx Tx, rec *model.UnlockRecord) error

	// Find returns the record for (owner, session), or domain.ErrNotFound.
	Find(ctx context.Context, tx Tx, ownerID, reportSession string) (*model.UnlockRecord, error)
}
