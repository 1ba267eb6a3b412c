package notify

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNoOpNotifier_SendBuildFailure(t *testing.T) {
	t.Parallel()

	n := NewNoOpNotifier(slog.New(slog.NewTextHandler(io.Discard, nil)))
	err := n.SendBuildFailure(context.Background(), &BuildFailure{
		Shop:     "acme.myshopify.com",
		Error:    "retries exhausted after 8 attempts",
		FailedAt: time.Now(),
	})
	require.NoError(t, err)
}

// compile-time interface check.
var _ Notifier = (*NoOpNotifier)(nil)
