package fortune

import (
	"context"

	"ai-fortune-report/internal/domain/model"
	"ai-fortune-report/internal/domain/ports/adapter"
)

var _ adapter.FortuneProvider = (*NoopProvider)(nil)

// NoopProvider returns a fixed reading for dev mode and tests.
type NoopProvider struct{}

func NewNoopProvider() *NoopProvider { return &NoopProvider{} }

func (n *NoopProvider) Divine(ctx context.Context, profile model.Profile) (*adapter.Reading, error) {
	return &adapter.Reading{
		Summary:   "A steady year for focused study.",
		Element:   "wood",
		Lucky:     []string{"east", "green"},
		StudyLuck: 72,
	}, nil
}
