// Package notify delivers feed build failure notifications.
package notify

import (
	"context"
	"time"
)

// BuildFailure describes a feed build that did not produce a document.
type BuildFailure struct {
	Shop        string
	Error       string
	FailedAt    time.Time
	LastSuccess time.Time // zero when no build has succeeded yet
}

// Notifier sends build failure notifications.
type Notifier interface {
	SendBuildFailure(ctx context.Context, f *BuildFailure) error
}
