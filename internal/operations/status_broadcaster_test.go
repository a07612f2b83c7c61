package operations

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filmstats/internal/shared/testutil"
)

func newTestBroadcaster(t *testing.T, hub WebSocketHub) *StatusBroadcaster {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	sb := NewStatusBroadcaster(hub, logger)
	t.Cleanup(sb.Stop)
	return sb
}

func TestStatusBroadcasterLifecycle(t *testing.T) {
	hub := &fakeHub{}
	sb := newTestBroadcaster(t, hub)
	steps := []Step{newFakeStep("load", nil, nil), newFakeStep("clean", []string{"load"}, nil)}

	sb.CreateOperation("run-1", steps)
	sb.StartOperation("run-1")
	sb.UpdateStepProgress("run-1", "load", 40, "Reading raw exports")

	snap, ok := sb.GetSnapshot("run-1")
	require.True(t, ok)
	assert.Equal(t, string(OperationStatusRunning), snap.Status)
	assert.Equal(t, "Step load", snap.CurrentStep)
	assert.Equal(t, 20, snap.Progress)
	require.Len(t, snap.Steps, 2)
	assert.Equal(t, string(StepStatusActive), snap.Steps[0].Status)
	assert.Equal(t, string(StepStatusPending), snap.Steps[1].Status)

	sb.CompleteStep("run-1", "load", "done", map[string]interface{}{"movies_rows": 6})
	sb.SkipStep("run-1", "clean", "dependency load failed")
	sb.CompleteOperation("run-1", "finished")

	snap, _ = sb.GetSnapshot("run-1")
	assert.Equal(t, 100, snap.Progress)
	assert.Equal(t, "", snap.CurrentStep)
	assert.NotNil(t, snap.CompletedAt)
	assert.Equal(t, 6, snap.Steps[0].Metadata["movies_rows"])
	assert.Equal(t, string(StepStatusSkipped), snap.Steps[1].Status)

	events := hub.all()
	require.Len(t, events, 6)
	for _, e := range events {
		assert.Equal(t, EventTypeSnapshot, e.eventType)
		assert.Equal(t, "run-1", e.id)
	}
	assert.Equal(t, string(OperationStatusCompleted), events[5].status)
}

func TestStatusBroadcasterProgressIsMonotonic(t *testing.T) {
	sb := newTestBroadcaster(t, nil)
	sb.CreateOperation("run-1", []Step{newFakeStep("clean", nil, nil)})

	sb.UpdateStepProgress("run-1", "clean", 60, "writing")
	sb.UpdateStepProgress("run-1", "clean", 20, "late update")

	snap, _ := sb.GetSnapshot("run-1")
	assert.Equal(t, 60, snap.Steps[0].Progress)
	assert.Equal(t, "late update", snap.Steps[0].Message)

	sb.UpdateStepProgress("run-1", "clean", 250, "over")
	snap, _ = sb.GetSnapshot("run-1")
	assert.Equal(t, 100, snap.Steps[0].Progress)
}

func TestStatusBroadcasterFailure(t *testing.T) {
	hub := &fakeHub{}
	sb := newTestBroadcaster(t, hub)
	sb.CreateOperation("run-1", []Step{newFakeStep("clean", nil, nil)})

	sb.FailStep("run-1", "clean", errors.New("bad header"))
	sb.FailOperation("run-1", errors.New("pipeline failed"))

	snap, _ := sb.GetSnapshot("run-1")
	assert.Equal(t, string(StepStatusFailed), snap.Steps[0].Status)
	assert.Equal(t, "bad header", snap.Steps[0].Error)
	assert.Equal(t, "pipeline failed", snap.Error)
	assert.Equal(t, string(OperationStatusFailed), hub.last().status)
}

func TestStatusBroadcasterSnapshotsAreCopies(t *testing.T) {
	sb := newTestBroadcaster(t, nil)
	sb.CreateOperation("run-1", []Step{newFakeStep("load", nil, nil)})

	snap, _ := sb.GetSnapshot("run-1")
	snap.Steps[0].Status = "tampered"

	again, _ := sb.GetSnapshot("run-1")
	assert.Equal(t, string(StepStatusPending), again.Steps[0].Status)

	_, ok := sb.GetSnapshot("unknown")
	assert.False(t, ok)
	assert.Len(t, sb.GetAllSnapshots(), 1)
}

func TestStatusBroadcasterCleanupOldOperations(t *testing.T) {
	sb := newTestBroadcaster(t, nil)
	sb.CreateOperation("done", nil)
	sb.CompleteOperation("done", "ok")
	sb.CreateOperation("running", nil)
	sb.StartOperation("running")

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 1, sb.CleanupOldOperations(time.Millisecond))

	_, ok := sb.GetSnapshot("done")
	assert.False(t, ok)
	_, ok = sb.GetSnapshot("running")
	assert.True(t, ok)
}

func TestStatusBroadcasterStopIsIdempotent(t *testing.T) {
	sb := newTestBroadcaster(t, nil)
	sb.Stop()
	sb.Stop()

	sb.StartOperation("after-stop")
	_, ok := sb.GetSnapshot("after-stop")
	assert.False(t, ok)
}
