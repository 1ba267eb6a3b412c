package notify

import (
	"context"
	"log/slog"
)

// NoOpNotifier implements Notifier by logging discarded notifications. It is
// used when Discord is not configured.
type NoOpNotifier struct {
	log *slog.Logger
}

// NewNoOpNotifier creates a notifier that discards failures with a log message.
func NewNoOpNotifier(log *slog.Logger) *NoOpNotifier {
	return &NoOpNotifier{log: log}
}

// SendBuildFailure logs and discards the failure.
func (n *NoOpNotifier) SendBuildFailure(_ context.Context, f *BuildFailure) error {
	n.log.Debug("notification discarded (no backend configured)",
		"shop", f.Shop,
		"error", f.Error,
	)
	return nil
}
