package repository

import (
	"context"

	"ai-fortune-report/internal/domain/model"
)

// ReportRepository is the port for report persistence, keyed by session.
type ReportRepository interface {
	// Upsert writes the report row for its session (insert or replace).
	Upsert(ctx context.Context, tx Tx, report *model.Report) error

	// FindBySession returns the report, or domain.ErrNotFound.
	FindBySession(ctx context.Context, tx Tx, session string) (*model.Report, error)

	// ListByOwner returns a user's reports, newest first.
	ListByOwner(ctx context.Context, tx Tx, ownerID string, offset, limit int) ([]*model.Report, error)
}
