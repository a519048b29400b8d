package repository

import (
	"context"

	"ai-fortune-report/internal/domain/model"
)

// UserRepository is the port for account storage.
type UserRepository interface {
	Save(ctx context.Context, tx Tx, user *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.User, error)
	CountUsers(ctx context.Context, tx Tx) (int, error)
}
