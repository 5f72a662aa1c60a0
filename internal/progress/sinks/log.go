// Package sinks provides progress.Sink implementations for logs, user
// callbacks, and Prometheus collectors.
package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/mnr-tools/policy-crawler/internal/progress"
)

// LogSink emits structured logs for the progress stream. It is useful during
// development or audits where no callback consumer is attached.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a Zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs the event using structured fields.
func (s *LogSink) Consume(_ context.Context, evt progress.Event) error {
	s.logger.Info("crawl progress",
		zap.String("run_id", evt.RunID.String()),
		zap.String("kind", string(evt.Kind)),
		zap.String("stage", evt.Stage),
		zap.String("source", evt.Source),
		zap.String("title", evt.Title),
		zap.Int("processed", evt.Processed),
		zap.Int("succeeded", evt.Succeeded),
		zap.Int("failed", evt.Failed),
		zap.Int("total", evt.Total),
		zap.String("status", evt.Status),
	)
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
