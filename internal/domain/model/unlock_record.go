package model

import (
	"time"

	"github.com/google/uuid"
)

// UnlockRecord is durable proof that a user unlocked a report session.
// At most one record exists per (owner, session); the table carries a
// unique constraint on the pair. Records are insert-only.
type UnlockRecord struct {
	ID            string
	OwnerID       string
	ReportSession string
	CodeID        string // the redemption code consumed
	UnlockedAt    time.Time
}

func NewUnlockRecord(ownerID, reportSession, codeID string) *UnlockRecord {
	return &UnlockRecord{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		ReportSession: reportSession,
		CodeID:        codeID,
		UnlockedAt:    time.Now(),
	}
}
