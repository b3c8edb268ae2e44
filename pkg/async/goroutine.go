// Package async runs best-effort background tasks without letting them take
// the process down.
package async

import (
	"context"
	"time"

	"github.com/platinummonkey/staffing/pkg/observability"
)

// SafeGo runs fn in a goroutine bounded by timeout. A returned error or a
// panic is logged and swallowed. The returned channel is closed once fn has
// finished.
//
//	async.SafeGo(ctx, logger, 10*time.Second, "agency cache warm-up", func(ctx context.Context) error {
//		_, err := agencies.List(ctx)
//		return err
//	})
func SafeGo(parent context.Context, logger *observability.Logger, timeout time.Duration, task string, fn func(context.Context) error) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer observability.RecoverPanic(logger, task)

		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			logger.WithError(err).WithField("task", task).Warn("background task failed")
		}
	}()
	return done
}
