package resilience

import (
	"context"

	"github.com/richxcame/busymap/pkg/logger"
	"go.uber.org/zap"
)

// FallbackFunc is executed when the breaker is open or overloaded.
type FallbackFunc func(ctx context.Context, err error) (interface{}, error)

// NoopFallback returns the breaker open error without additional handling.
func NoopFallback(ctx context.Context, err error) (interface{}, error) {
	return nil, ErrCircuitOpen
}

// GracefulDegradation logs the refusal and returns ErrCircuitOpen so the
// caller can apply its own endpoint-specific degradation policy.
func GracefulDegradation(service string) FallbackFunc {
	return func(ctx context.Context, err error) (interface{}, error) {
		logger.WarnContext(ctx, "upstream call refused by open breaker",
			zap.String("service", service),
			zap.Error(err),
		)
		return nil, ErrCircuitOpen
	}
}
