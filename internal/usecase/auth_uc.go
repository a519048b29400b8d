package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"ai-fortune-report/internal/domain"
	"ai-fortune-report/internal/domain/model"
	"ai-fortune-report/internal/domain/ports/repository"
)

// AuthUseCase is the credential store: account registration and
// authentication. Session token minting lives in the web layer.
type AuthUseCase interface {
	SignUp(ctx context.Context, email, password string) (*model.User, error)
	SignIn(ctx context.Context, email, password string) (*model.User, error)
	Identity(ctx context.Context, userID string) (*model.User, error)
}

type authUC struct {
	userRepo repository.UserRepository
	log      *zerolog.Logger
}

var _ AuthUseCase = (*authUC)(nil)

func NewAuthUseCase(userRepo repository.UserRepository, log *zerolog.Logger) AuthUseCase {
	return &authUC{userRepo: userRepo, log: log}
}

func (uc *authUC) SignUp(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(password) < 8 {
		return nil, domain.ErrInvalidArgument
	}
	if _, err := uc.userRepo.FindByEmail(ctx, nil, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: find by email: %v", domain.ErrPersistence, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user, err := model.NewUser("", email, string(hash))
	if err != nil {
		return nil, err
	}
	if err := uc.userRepo.Save(ctx, nil, user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("%w: save user: %v", domain.ErrPersistence, err)
	}
	uc.log.Info().Str("user_id", user.ID).Msg("user registered")
	return user, nil
}

func (uc *authUC) SignIn(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := uc.userRepo.FindByEmail(ctx, nil, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: find by email: %v", domain.ErrPersistence, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	user.Touch()
	if err := uc.userRepo.Save(ctx, nil, user); err != nil {
		// Last-active is best effort; a failed touch must not block sign-in.
		uc.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to update last active time")
	}
	return user, nil
}

func (uc *authUC) Identity(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	user, err := uc.userRepo.FindByID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("%w: find user: %v", domain.ErrPersistence, err)
	}
	return user, nil
}
