package adapter

import (
	"context"

	"ai-fortune-report/internal/domain/model"
)

// Reading is the structured payload returned by the fortune-telling service.
type Reading struct {
	Summary   string   `json:"summary"`
	Element   string   `json:"element"`
	Lucky     []string `json:"lucky"`
	StudyLuck int      `json:"study_luck"` // 0..100
}

// FortuneProvider is the port for the external fortune-telling API.
type FortuneProvider interface {
	Divine(ctx context.Context, profile model.Profile) (*Reading, error)
}
