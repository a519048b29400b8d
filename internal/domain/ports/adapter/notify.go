package adapter

import "context"

// AdminNotifier pushes operational alerts (failed generations, redemption
// anomalies) to whoever runs the service. Best-effort: callers must not fail
// on notifier errors.
type AdminNotifier interface {
	Notify(ctx context.Context, text string) error
}
