package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ai-fortune-report/internal/domain"
	"ai-fortune-report/internal/domain/model"
	"ai-fortune-report/internal/domain/ports/repository"
)

// CodeUseCase issues redemption codes. Issuance is an administrative,
// out-of-band action (cmd/seed); the unlock protocol only ever reads and
// consumes codes.
type CodeUseCase interface {
	Issue(ctx context.Context, ownerID string, count int, expiresAt *time.Time) ([]*model.RedemptionCode, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*model.RedemptionCode, error)
}

type codeUC struct {
	codeRepo repository.RedemptionCodeRepository
	userRepo repository.UserRepository
	log      *zerolog.Logger
}

var _ CodeUseCase = (*codeUC)(nil)

func NewCodeUseCase(codeRepo repository.RedemptionCodeRepository, userRepo repository.UserRepository, log *zerolog.Logger) CodeUseCase {
	return &codeUC{codeRepo: codeRepo, userRepo: userRepo, log: log}
}

func (uc *codeUC) Issue(ctx context.Context, ownerID string, count int, expiresAt *time.Time) ([]*model.RedemptionCode, error) {
	if count <= 0 || count > 1000 {
		return nil, domain.ErrInvalidArgument
	}
	if _, err := uc.userRepo.FindByID(ctx, nil, ownerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: find owner: %v", domain.ErrPersistence, err)
	}

	out := make([]*model.RedemptionCode, 0, count)
	for i := 0; i < count; i++ {
		code, err := uc.issueOne(ctx, ownerID, expiresAt)
		if err != nil {
			return out, err
		}
		out = append(out, code)
	}
	uc.log.Info().Str("owner_id", ownerID).Int("count", len(out)).Msg("codes issued")
	return out, nil
}

// issueOne retries on the rare code-string collision.
func (uc *codeUC) issueOne(ctx context.Context, ownerID string, expiresAt *time.Time) (*model.RedemptionCode, error) {
	for attempt := 0; attempt < 3; attempt++ {
		code, err := model.NewRedemptionCode(ownerID, expiresAt)
		if err != nil {
			return nil, err
		}
		err = uc.codeRepo.Save(ctx, nil, code)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: save code: %v", domain.ErrPersistence, err)
		}
	}
	return nil, domain.ErrAlreadyExists
}

func (uc *codeUC) ListByOwner(ctx context.Context, ownerID string) ([]*model.RedemptionCode, error) {
	if ownerID == "" {
		return nil, domain.ErrInvalidArgument
	}
	codes, err := uc.codeRepo.ListByOwner(ctx, nil, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: list codes: %v", domain.ErrPersistence, err)
	}
	return codes, nil
}
