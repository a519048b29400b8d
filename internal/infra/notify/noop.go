package notify

import (
	"context"

	"ai-fortune-report/internal/domain/ports/adapter"
)

var _ adapter.AdminNotifier = (*NoopNotifier)(nil)

type NoopNotifier struct{}

func NewNoopNotifier() *NoopNotifier { return &NoopNotifier{} }

func (n *NoopNotifier) Notify(ctx context.Context, text string) error { return nil }
