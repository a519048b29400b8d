package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"ai-fortune-report/internal/domain"
	"ai-fortune-report/internal/domain/model"
	"ai-fortune-report/internal/domain/ports/repository"
	"ai-fortune-report/internal/infra/logging"
	"ai-fortune-report/internal/infra/metrics"
)

// UnlockUseCase is the redemption-code unlock protocol.
type UnlockUseCase interface {
	// Redeem validates codeInput against the two ledgers and, on success,
	// durably unlocks (ownerID, reportSession). Returns one of the domain
	// sentinels on failure.
	Redeem(ctx context.Context, ownerID, reportSession, codeInput string) error

	// IsUnlocked reports whether an unlock record exists for the pair.
	// An empty ownerID reads as "nothing unlocked", not an error.
	IsUnlocked(ctx context.Context, ownerID, reportSession string) (bool, error)
}

type unlockUC struct {
	codeRepo   repository.RedemptionCodeRepository
	unlockRepo repository.UnlockRecordRepository
	reportRepo repository.ReportRepository
	tm         repository.TransactionManager
	log        *zerolog.Logger
}

var _ UnlockUseCase = (*unlockUC)(nil)

func NewUnlockUseCase(
	codeRepo repository.RedemptionCodeRepository,
	unlockRepo repository.UnlockRecordRepository,
	reportRepo repository.ReportRepository,
	tm repository.TransactionManager,
	log *zerolog.Logger,
) UnlockUseCase {
	return &unlockUC{
		codeRepo:   codeRepo,
		unlockRepo: unlockRepo,
		reportRepo: reportRepo,
		tm:         tm,
		log:        log,
	}
}

// Redeem runs the validation sequence in a fixed order; the first failing
// check decides the surfaced error. Ledger writes (unlock insert + used-flag
// flip) happen inside one transaction so a failure on either leaves the code
// redeemable and the session locked.
func (uc *unlockUC) Redeem(ctx context.Context, ownerID, reportSession, codeInput string) error {
	defer logging.TraceDuration(logging.With(ctx, uc.log), "UnlockUC.Redeem")()

	err := uc.redeem(ctx, ownerID, reportSession, codeInput)
	metrics.CountRedeem(redeemOutcome(err))
	return err
}

func (uc *unlockUC) redeem(ctx context.Context, ownerID, reportSession, codeInput string) error {
	if ownerID == "" {
		return domain.ErrUnauthenticated
	}
	normalized := model.NormalizeCode(codeInput)
	if normalized == "" {
		return domain.ErrEmptyCode
	}

	// The target session must exist and belong to the caller before any
	// code state is read. Someone else's session reads as missing.
	report, err := uc.reportRepo.FindBySession(ctx, nil, reportSession)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("%w: find report: %v", domain.ErrPersistence, err)
	}
	if report.OwnerID != ownerID {
		return domain.ErrNotFound
	}

	return uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		// 1. Lookup by (code, owner). A code bound to another owner is
		// indistinguishable from a nonexistent one.
		code, err := uc.codeRepo.FindByCodeAndOwner(ctx, tx, normalized, ownerID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrCodeNotFound
			}
			return fmt.Errorf("%w: find code: %v", domain.ErrPersistence, err)
		}

		// 2. Used check.
		if code.Used {
			return domain.ErrCodeAlreadyUsed
		}

		// 3. Expiry check (strictly before now).
		if code.Expired(time.Now()) {
			return domain.ErrCodeExpired
		}

		// 4. Idempotency check: the pair may already be unlocked; the code
		// is not consumed in that case.
		if _, err := uc.unlockRepo.Find(ctx, tx, ownerID, reportSession); err == nil {
			return domain.ErrAlreadyUnlocked
		} else if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: find unlock: %v", domain.ErrPersistence, err)
		}

		// 5. Commit the unlock record. The store-level uniqueness constraint
		// catches the race the check above cannot.
		rec := model.NewUnlockRecord(ownerID, reportSession, code.ID)
		if err := uc.unlockRepo.Insert(ctx, tx, rec); err != nil {
			if errors.Is(err, domain.ErrAlreadyUnlocked) {
				return domain.ErrAlreadyUnlocked
			}
			return fmt.Errorf("%w: insert unlock: %v", domain.ErrPersistence, err)
		}

		// 6. Consume the code. Conditional on used=FALSE, so a concurrent
		// redemption of the same code loses here and rolls its unlock back.
		if err := uc.codeRepo.MarkUsed(ctx, tx, code.ID, time.Now()); err != nil {
			if errors.Is(err, domain.ErrCodeAlreadyUsed) {
				return domain.ErrCodeAlreadyUsed
			}
			return fmt.Errorf("%w: mark used: %v", domain.ErrPersistence, err)
		}
		return nil
	})
}

func (uc *unlockUC) IsUnlocked(ctx context.Context, ownerID, reportSession string) (bool, error) {
	if ownerID == "" {
		return false, nil
	}
	_, err := uc.unlockRepo.Find(ctx, nil, ownerID, reportSession)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("%w: find unlock: %v", domain.ErrPersistence, err)
}

func redeemOutcome(err error) string {
	switch {
	case err == nil:
		return "unlocked"
	case errors.Is(err, domain.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, domain.ErrEmptyCode):
		return "empty_code"
	case errors.Is(err, domain.ErrCodeNotFound), errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrCodeAlreadyUsed):
		return "already_used"
	case errors.Is(err, domain.ErrCodeExpired):
		return "expired"
	case errors.Is(err, domain.ErrAlreadyUnlocked):
		return "already_unlocked"
	default:
		return "persistence_error"
	}
}
