package model

import (
	"crypto/rand"
	"io"
	"strings"
	"time"

	"ai-fortune-report/internal/domain"

	"github.com/google/uuid"
)

// RedemptionCode is a single-use token that unlocks one report for the user
// it was issued to. Codes are created out-of-band (cmd/seed) and never deleted.
type RedemptionCode struct {
	ID        string
	Code      string // stored normalized: 8 chars, no hyphen
	OwnerID   string
	Used      bool
	UsedAt    *time.Time // pointer to allow for NULL
	ExpiresAt *time.Time // nil means no expiry
	CreatedAt time.Time
}

// A character set that avoids ambiguous characters like O/0, I/1, l.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 8

// NewRedemptionCode mints a code bound to ownerID. expiresAt may be nil.
func NewRedemptionCode(ownerID string, expiresAt *time.Time) (*RedemptionCode, error) {
	if ownerID == "" {
		return nil, domain.ErrInvalidArgument
	}
	raw, err := generateCode()
	if err != nil {
		return nil, err
	}
	return &RedemptionCode{
		ID:        uuid.NewString(),
		Code:      raw,
		OwnerID:   ownerID,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}, nil
}

func generateCode() (string, error) {
	buffer := make([]byte, codeLength)
	if _, err := io.ReadFull(rand.Reader, buffer); err != nil {
		return "", err
	}
	for i := 0; i < codeLength; i++ {
		buffer[i] = codeAlphabet[int(buffer[i])%len(codeAlphabet)]
	}
	return string(buffer), nil
}

// NormalizeCode maps user input to the stored form: upper-case, hyphens and
// surrounding whitespace stripped. "ab3d-ef9h" and "AB3DEF9H" are the same code.
func NormalizeCode(input string) string {
	s := strings.TrimSpace(input)
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	return strings.ToUpper(s)
}

// Display renders the code in the user-facing XXXX-XXXX form.
func (c *RedemptionCode) Display() string {
	if len(c.Code) != codeLength {
		return c.Code
	}
	return c.Code[:4] + "-" + c.Code[4:]
}

// Expired reports whether the code's expiry is strictly before now.
func (c *RedemptionCode) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}

// MarkUsed flips the used flag; the repository enforces the flip is
// conditional on the stored row still being unused.
func (c *RedemptionCode) MarkUsed(now time.Time) {
	c.Used = true
	c.UsedAt = &now
}
