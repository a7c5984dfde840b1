package history

import (
	"context"
	"time"
)

// Pruner is the part of SQLiteRepository used by RunPruner.
type Pruner interface {
	PruneHistory(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Logger is the logging interface used by RunPruner.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// RunPruner deletes entries older than retention once immediately and then
// every interval until ctx is cancelled. A non-positive retention disables
// pruning.
func RunPruner(ctx context.Context, p Pruner, retention, interval time.Duration, logger Logger) {
	if retention <= 0 || interval <= 0 {
		return
	}

	prune := func() {
		n, err := p.PruneHistory(ctx, retention)
		switch {
		case err != nil:
			logger.Error("pruning shade history failed", "error", err)
		case n > 0:
			logger.Info("pruned shade history", "deleted", n, "retention", retention.String())
		}
	}

	prune()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}
