package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrPersistence     = errors.New("persistence failure")
	ErrReadDatabaseRow = errors.New("failed to read database row")

	// Identity errors
	ErrUnauthenticated    = errors.New("no authenticated identity")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")

	// Redemption errors
	ErrEmptyCode       = errors.New("redemption code is empty")
	ErrCodeNotFound    = errors.New("redemption code not found")
	ErrCodeAlreadyUsed = errors.New("redemption code already used")
	ErrCodeExpired     = errors.New("redemption code expired")
	ErrAlreadyUnlocked = errors.New("report already unlocked")
)
