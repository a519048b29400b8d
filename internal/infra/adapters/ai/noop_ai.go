package ai

import (
	"context"

	"ai-fortune-report/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*NoopAI)(nil)

// NoopAI is a stand-in adapter for dev mode and tests.
type NoopAI struct{}

func NewNoopAI() *NoopAI { return &NoopAI{} }

func (n *NoopAI) ListModels(ctx context.Context) ([]string, error) {
	return []string{"noop"}, nil
}

func (n *NoopAI) GetModelInfo(model string) (adapter.ModelInfo, error) {
	return adapter.ModelInfo{Name: "noop", Description: "noop adapter"}, nil
}

func (n *NoopAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	total := 0
	for _, m := range messages {
		total += len(m.Content) / 4
	}
	return total, nil
}

func (n *NoopAI) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	return "The stars are quiet today.", nil
}
