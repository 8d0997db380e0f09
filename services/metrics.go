package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const metricsTimeout = 5 * time.Second

// MetricsRecorder receives business counters. *aws.MetricsClient satisfies it.
type MetricsRecorder interface {
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
}

type noopMetrics struct{}

func (noopMetrics) RecordCount(context.Context, string, map[string]string) error { return nil }

// recordAsync sends a counter off the request path with its own deadline.
func recordAsync(m MetricsRecorder, log *zap.Logger, metricName string) {
	if _, ok := m.(noopMetrics); ok {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsTimeout)
		defer cancel()
		if err := m.RecordCount(ctx, metricName, nil); err != nil {
			log.Debug("Failed to record metric", zap.String("metric", metricName), zap.Error(err))
		}
	}()
}
