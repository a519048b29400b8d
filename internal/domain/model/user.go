package model

import (
	"strings"
	"time"

	"ai-fortune-report/internal/domain"

	"github.com/google/uuid"
)

// User is an account registered through the credential store.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	RegisteredAt time.Time
	LastActiveAt time.Time
	IsAdmin      bool
}

func NewUser(id, email, passwordHash string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidArgument
	}
	if passwordHash == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		RegisteredAt: now,
		LastActiveAt: now,
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }
func (u *User) Touch()       { u.LastActiveAt = time.Now() }
