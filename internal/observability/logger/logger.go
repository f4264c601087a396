package logger

import (
	"context"

	obscontext "github.com/smallbiznis/teamhub/internal/observability/context"
	"go.uber.org/zap"
)

// FromContext returns the global logger enriched with correlation metadata.
func FromContext(ctx context.Context) *zap.Logger {
	log := zap.L()
	if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
		log = log.With(zap.String("request_id", requestID))
	}
	return log
}
