package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ai-fortune-report/internal/domain"
	"ai-fortune-report/internal/domain/model"
	"ai-fortune-report/internal/domain/ports/adapter"
	"ai-fortune-report/internal/domain/ports/repository"
	"ai-fortune-report/internal/infra/logging"
	"ai-fortune-report/internal/infra/metrics"
	"ai-fortune-report/internal/infra/worker"
)

// ReportUseCase assembles fortune reports and serves them with the
// recommendation section redacted until the session is unlocked.
type ReportUseCase interface {
	// Request persists a pending report bound to ownerID and schedules
	// generation. Returns the freshly minted session id.
	Request(ctx context.Context, ownerID string, profile model.Profile) (string, error)

	// Get returns the report for session if the viewer owns it, plus whether
	// the viewer has unlocked it. Locked reports come back with the
	// recommendation section stripped.
	Get(ctx context.Context, viewerID, session string) (*model.Report, bool, error)

	// List returns the viewer's reports, newest first.
	List(ctx context.Context, ownerID string, offset, limit int) ([]*model.Report, error)
}

type reportUC struct {
	reportRepo repository.ReportRepository
	unlockUC   UnlockUseCase
	fortune    adapter.FortuneProvider
	ai         adapter.AIServiceAdapter
	pool       *worker.Pool
	notifier   adapter.AdminNotifier
	model      string
	log        *zerolog.Logger
}

var _ ReportUseCase = (*reportUC)(nil)

func NewReportUseCase(
	reportRepo repository.ReportRepository,
	unlockUC UnlockUseCase,
	fortune adapter.FortuneProvider,
	ai adapter.AIServiceAdapter,
	pool *worker.Pool,
	notifier adapter.AdminNotifier,
	modelName string,
	log *zerolog.Logger,
) ReportUseCase {
	return &reportUC{
		reportRepo: reportRepo,
		unlockUC:   unlockUC,
		fortune:    fortune,
		ai:         ai,
		pool:       pool,
		notifier:   notifier,
		model:      modelName,
		log:        log,
	}
}

func (uc *reportUC) Request(ctx context.Context, ownerID string, profile model.Profile) (string, error) {
	if ownerID == "" {
		return "", domain.ErrUnauthenticated
	}
	report, err := model.NewReport(ownerID, profile)
	if err != nil {
		return "", err
	}
	if err := uc.reportRepo.Upsert(ctx, nil, report); err != nil {
		return "", fmt.Errorf("%w: save pending report: %v", domain.ErrPersistence, err)
	}
	metrics.CountReportRequested()

	session := report.Session
	if err := uc.pool.Submit(func(taskCtx context.Context) error {
		return uc.generate(taskCtx, session)
	}); err != nil {
		// Queue saturated: generate inline rather than stranding a pending row.
		uc.log.Warn().Err(err).Str("session", session).Msg("worker queue full, generating inline")
		go func() {
			if gerr := uc.generate(context.Background(), session); gerr != nil {
				uc.log.Error().Err(gerr).Str("session", session).Msg("inline generation failed")
			}
		}()
	}
	return session, nil
}

// generate calls the two external services and merges their output into the
// stored report. Runs on the worker pool.
func (uc *reportUC) generate(ctx context.Context, session string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	ctx = logging.WithSessID(ctx, session)
	log := logging.With(ctx, uc.log)

	report, err := uc.reportRepo.FindBySession(ctx, nil, session)
	if err != nil {
		return fmt.Errorf("load pending report: %w", err)
	}

	start := time.Now()
	reading, narrative, err := uc.assemble(ctx, report.Profile)
	if err != nil {
		metrics.ObserveReportGeneration(start, false)
		report.Status = model.ReportStatusFailed
		if uerr := uc.reportRepo.Upsert(ctx, nil, report); uerr != nil {
			log.Error().Err(uerr).Msg("failed to persist failed report status")
		}
		if nerr := uc.notifier.Notify(ctx, fmt.Sprintf("report generation failed (session %s): %v", session, err)); nerr != nil {
			log.Warn().Err(nerr).Msg("admin notify failed")
		}
		return err
	}

	report.Narrative = narrative
	report.Recommendations = rankInstitutions(report.Profile.Institutions, reading)
	report.Status = model.ReportStatusReady
	if err := uc.reportRepo.Upsert(ctx, nil, report); err != nil {
		metrics.ObserveReportGeneration(start, false)
		return fmt.Errorf("persist ready report: %w", err)
	}
	metrics.ObserveReportGeneration(start, true)
	log.Info().Dur("elapsed", time.Since(start)).Msg("report generated")
	return nil
}

// assemble fetches the structured reading, then prompts the LLM with it.
func (uc *reportUC) assemble(ctx context.Context, profile model.Profile) (*adapter.Reading, string, error) {
	reading, err := uc.fortune.Divine(ctx, profile)
	if err != nil {
		return nil, "", fmt.Errorf("fortune service: %w", err)
	}

	narrative, err := uc.ai.Chat(ctx, uc.model, buildNarrativePrompt(profile, reading))
	if err != nil {
		return nil, "", fmt.Errorf("llm service: %w", err)
	}
	return reading, narrative, nil
}

func buildNarrativePrompt(profile model.Profile, reading *adapter.Reading) []adapter.Message {
	return []adapter.Message{
		{
			Role: "system",
			Content: "You are an encouraging academic fortune teller. Write a short, " +
				"warm narrative (3-5 paragraphs) for a student, weaving the provided " +
				"divination reading into advice about their studies. Do not mention " +
				"specific universities.",
		},
		{
			Role: "user",
			Content: fmt.Sprintf(
				"Born %04d-%02d-%02d (hour %d), gender %s, aiming to study %s.\n"+
					"Reading: %s\nElement: %s\nLucky: %v\nStudy luck: %d/100.",
				profile.BirthYear, profile.BirthMonth, profile.BirthDay, profile.BirthHour,
				profile.Gender, profile.Field,
				reading.Summary, reading.Element, reading.Lucky, reading.StudyLuck,
			),
		},
	}
}

func (uc *reportUC) Get(ctx context.Context, viewerID, session string) (*model.Report, bool, error) {
	if viewerID == "" {
		return nil, false, domain.ErrUnauthenticated
	}
	report, err := uc.reportRepo.FindBySession(ctx, nil, session)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, domain.ErrNotFound
		}
		return nil, false, fmt.Errorf("%w: find report: %v", domain.ErrPersistence, err)
	}
	// Sessions are bound to their owner; anyone else sees a missing report.
	if report.OwnerID != viewerID {
		return nil, false, domain.ErrNotFound
	}

	unlocked, err := uc.unlockUC.IsUnlocked(ctx, viewerID, session)
	if err != nil {
		return nil, false, err
	}
	if !unlocked {
		report.Recommendations = nil
	}
	return report, unlocked, nil
}

func (uc *reportUC) List(ctx context.Context, ownerID string, offset, limit int) ([]*model.Report, error) {
	if ownerID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	reports, err := uc.reportRepo.ListByOwner(ctx, nil, ownerID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list reports: %v", domain.ErrPersistence, err)
	}
	// The list view never includes the paywalled section.
	for _, r := range reports {
		r.Recommendations = nil
	}
	return reports, nil
}
