package operations

import (
	"context"
	"log/slog"
	"time"
)

func (m *Manager) logRunStart(ctx context.Context, operationID string, steps []Step) {
	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.ID()
	}
	m.logger.InfoContext(ctx, "pipeline run started",
		slog.String("operation_id", operationID),
		slog.Any("steps", ids))
}

func (m *Manager) logRunComplete(ctx context.Context, operationID string, duration time.Duration, status OperationStatusValue) {
	m.logger.InfoContext(ctx, "pipeline run finished",
		slog.String("operation_id", operationID),
		slog.String("status", string(status)),
		slog.Duration("duration", duration))
}

func (m *Manager) logRunError(ctx context.Context, operationID string, err error) {
	m.logger.ErrorContext(ctx, "pipeline run failed",
		slog.String("operation_id", operationID),
		slog.String("error", err.Error()))
}

func (m *Manager) logStepStart(ctx context.Context, stepID string, attempt int) {
	m.logger.DebugContext(ctx, "step started",
		slog.String("step", stepID),
		slog.Int("attempt", attempt))
}

func (m *Manager) logStepComplete(ctx context.Context, stepID string, duration time.Duration) {
	m.logger.InfoContext(ctx, "step completed",
		slog.String("step", stepID),
		slog.Duration("duration", duration))
}

func (m *Manager) logStepError(ctx context.Context, stepID string, err error) {
	m.logger.ErrorContext(ctx, "step failed",
		slog.String("step", stepID),
		slog.String("error", err.Error()))
}
