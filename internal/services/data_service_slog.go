package services

import (
	"context"
	"log/slog"
)

// logError logs a failed data service action. The run ID and trace ID in
// ctx are added by the logger's handler.
func (s *DataService) logError(ctx context.Context, action, message string, attrs ...slog.Attr) {
	allAttrs := append([]slog.Attr{slog.String("action", action)}, attrs...)
	s.logger.LogAttrs(ctx, slog.LevelError, message, allAttrs...)
}
