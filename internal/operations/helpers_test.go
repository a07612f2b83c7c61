package operations

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"filmstats/internal/shared/testutil"
	"filmstats/pkg/contracts/domain"
)

// fakeStep runs fn and counts its attempts
type fakeStep struct {
	BaseStage
	fn    func(ctx context.Context, state *OperationState) error
	calls atomic.Int32
}

func newFakeStep(id string, deps []string, fn func(context.Context, *OperationState) error) *fakeStep {
	return &fakeStep{
		BaseStage: NewBaseStage(id, "Step "+id, deps, nil, nil),
		fn:        fn,
	}
}

func (f *fakeStep) Execute(ctx context.Context, state *OperationState) error {
	f.calls.Add(1)
	if f.fn == nil {
		return nil
	}
	return f.fn(ctx, state)
}

// orderRecorder records the IDs of executed steps
type orderRecorder struct {
	mu  sync.Mutex
	ids []string
}

func (o *orderRecorder) step(id string, deps ...string) *fakeStep {
	return newFakeStep(id, deps, func(context.Context, *OperationState) error {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.ids = append(o.ids, id)
		return nil
	})
}

func (o *orderRecorder) executed() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.ids...)
}

type hubEvent struct {
	eventType string
	id        string
	status    string
	snapshot  *OperationSnapshot
}

// fakeHub collects broadcast snapshots
type fakeHub struct {
	mu     sync.Mutex
	events []hubEvent
}

func (h *fakeHub) BroadcastUpdate(eventType, step, status string, metadata interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	snap, _ := metadata.(*OperationSnapshot)
	h.events = append(h.events, hubEvent{eventType: eventType, id: step, status: status, snapshot: snap})
}

func (h *fakeHub) all() []hubEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]hubEvent(nil), h.events...)
}

func (h *fakeHub) last() hubEvent {
	events := h.all()
	if len(events) == 0 {
		return hubEvent{}
	}
	return events[len(events)-1]
}

// fakeSink stores the last published results
type fakeSink struct {
	mu       sync.Mutex
	calls    int
	aggs     []domain.MovieAggregate
	summary  domain.AggregateSummary
	analysis *domain.Analysis
}

func (s *fakeSink) Publish(aggs []domain.MovieAggregate, summary domain.AggregateSummary, analysis *domain.Analysis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.aggs = aggs
	s.summary = summary
	s.analysis = analysis
}

// testConfig retries quickly so tests stay fast
func testConfig() *Config {
	return NewConfigBuilder().
		WithRetryConfig(RetryConfig{
			MaxAttempts:  2,
			InitialDelay: time.Millisecond,
			MaxDelay:     5 * time.Millisecond,
			Multiplier:   2,
		}).
		Build()
}

func newTestManager(t *testing.T, hub WebSocketHub, config *Config, steps ...Step) *Manager {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	m := NewManager(hub, NewRegistry(), config, logger)
	t.Cleanup(m.Shutdown)
	for _, s := range steps {
		if err := m.RegisterStage(s); err != nil {
			t.Fatalf("register %s: %v", s.ID(), err)
		}
	}
	return m
}
