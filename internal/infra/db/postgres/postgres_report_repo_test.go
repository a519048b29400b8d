//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"

	"ai-fortune-report/internal/domain"
	"ai-fortune-report/internal/domain/model"
)

func TestReportRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := context.Background()
	repo := NewReportRepo(testPool)

	t.Run("upsert transitions pending to ready", func(t *testing.T) {
		cleanup(t)
		owner := seedUser(t, "reports@example.com")
		rep := seedReportRow(t, owner.ID)

		found, err := repo.FindBySession(ctx, nil, rep.Session)
		if err != nil {
			t.Fatalf("find pending: %v", err)
		}
		if found.Status != model.ReportStatusPending {
			t.Fatalf("expected pending, got %s", found.Status)
		}
		if found.Profile.Field != "history" {
			t.Fatalf("profile did not round-trip: %+v", found.Profile)
		}

		rep.Narrative = "a steady climb"
		rep.Recommendations = []model.Recommendation{
			{Institution: "State University", Tier: 2, Rationale: "solid match"},
		}
		rep.Status = model.ReportStatusReady
		if err := repo.Upsert(ctx, nil, rep); err != nil {
			t.Fatalf("upsert ready: %v", err)
		}

		found, err = repo.FindBySession(ctx, nil, rep.Session)
		if err != nil {
			t.Fatalf("find ready: %v", err)
		}
		if found.Status != model.ReportStatusReady || found.Narrative != "a steady climb" {
			t.Fatalf("update not persisted: %+v", found)
		}
		if len(found.Recommendations) != 1 || found.Recommendations[0].Tier != 2 {
			t.Fatalf("recommendations did not round-trip: %+v", found.Recommendations)
		}
	})

	t.Run("missing session", func(t *testing.T) {
		cleanup(t)
		if _, err := repo.FindBySession(ctx, nil, "ghost"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("list by owner paginates", func(t *testing.T) {
		cleanup(t)
		owner := seedUser(t, "page@example.com")
		stranger := seedUser(t, "stranger@example.com")
		for i := 0; i < 3; i++ {
			seedReportRow(t, owner.ID)
		}
		seedReportRow(t, stranger.ID)

		page, err := repo.ListByOwner(ctx, nil, owner.ID, 0, 2)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(page) != 2 {
			t.Fatalf("expected 2 reports, got %d", len(page))
		}
		rest, err := repo.ListByOwner(ctx, nil, owner.ID, 2, 2)
		if err != nil {
			t.Fatalf("list rest: %v", err)
		}
		if len(rest) != 1 {
			t.Fatalf("expected 1 report, got %d", len(rest))
		}
	})
}
