package operations

import "filmstats/pkg/contracts/domain"

// WebSocketHub receives operation snapshots for connected clients
type WebSocketHub interface {
	BroadcastUpdate(eventType, step, status string, metadata interface{})
}

// ResultSink receives the results of a finished run. The HTTP layer serves
// whatever was published last.
type ResultSink interface {
	Publish(aggs []domain.MovieAggregate, summary domain.AggregateSummary, analysis *domain.Analysis)
}
