package pipeline

import (
	types "GridForge/pkg"
	"context"
	"time"

	"go.uber.org/zap"
)

// Retry runs fn until it succeeds, the attempt budget is spent or ctx is
// done. Only publishing goes through here; a composition is never retried.
func Retry(ctx context.Context, logger *zap.Logger, retryCfg types.RetryConfig, operation string, fn func() error) error {
	attempts := int32(0)
	interval := time.Duration(retryCfg.InitialIntervalSec * float64(time.Second))

	for {
		if err := ctx.Err(); err != nil {
			logger.Warn("Retry cancelled", zap.String("operation", operation), zap.Error(err))
			return err
		}
		err := fn()
		if err == nil {
			return nil
		}
		attempts++
		if attempts >= retryCfg.MaxAttempts {
			logger.Error("Retry limit reached", zap.String("operation", operation), zap.Int32("attempts", attempts), zap.Error(err))
			return err
		}
		logger.Warn("Retry attempt failed", zap.String("operation", operation), zap.Int32("attempt", attempts), zap.Error(err))

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Warn("Retry cancelled", zap.String("operation", operation), zap.Error(ctx.Err()))
			return ctx.Err()
		case <-timer.C:
		}
		interval = time.Duration(float64(interval) * retryCfg.BackoffCoefficient)
	}
}
