package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filmstats/internal/config"
	apperrors "filmstats/internal/errors"
	"filmstats/internal/operations"
	"filmstats/internal/shared/testutil"
)

type serviceFixture struct {
	cfg     *config.Config
	paths   *config.Paths
	manager *operations.Manager
	data    *DataService
	ops     *OperationService
}

// newServiceFixture wires the real pipeline steps over the raw fixtures
func newServiceFixture(t *testing.T, withRaw bool) *serviceFixture {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)

	cfg := config.Default()
	cfg.Paths.BaseDir = t.TempDir()
	cfg.Pipeline.TopRatedMinRatings = 1
	cfg.Pipeline.GenreReportThreshold = 1
	cfg.Pipeline.GenreChartThreshold = 1
	paths := cfg.ResolvePaths()
	if withRaw {
		testutil.WriteRawFixtures(t, paths.DataDir)
	}

	registry := operations.NewRegistry()
	manager := operations.NewManager(nil, registry, operations.NewConfigBuilder().WithManifest(paths.ManifestJSON).Build(), logger)
	t.Cleanup(manager.Shutdown)
	opts := &operations.StageOptions{Paths: paths, Settings: cfg, Broadcaster: manager.GetBroadcaster()}
	require.NoError(t, operations.RegisterStages(registry, logger, opts))

	data := NewDataService(cfg, paths, logger)
	manager.SetResultSink(data)

	queue := operations.NewJobQueue(2, operations.NewMemoryJobStore(), manager, logger)
	ctx, cancel := context.WithCancel(context.Background())
	queue.Start(ctx)
	t.Cleanup(func() {
		cancel()
		_ = queue.Stop(time.Second)
	})

	return &serviceFixture{
		cfg:     cfg,
		paths:   paths,
		manager: manager,
		data:    data,
		ops:     NewOperationService(manager, queue, logger),
	}
}

func (f *serviceFixture) wait(t *testing.T, id string, status operations.JobStatus) *operations.Job {
	t.Helper()
	var job *operations.Job
	require.Eventually(t, func() bool {
		j, err := f.ops.GetJob(id)
		if err != nil {
			return false
		}
		job = j
		return j.Status == status
	}, 5*time.Second, 10*time.Millisecond)
	return job
}

func TestOperationServiceRunsPipeline(t *testing.T) {
	f := newServiceFixture(t, true)

	job, err := f.ops.StartPipeline(context.Background(), RunRequest{})
	require.NoError(t, err)
	f.wait(t, job.ID, operations.JobStatusCompleted)

	require.True(t, f.data.Ready())
	page, err := f.data.Movies(MovieQuery{})
	require.NoError(t, err)
	assert.Equal(t, testutil.FixtureMoviesCleaned, page.Total)

	snapshot, err := f.ops.Snapshot(job.OperationID)
	require.NoError(t, err)
	assert.Equal(t, string(operations.OperationStatusCompleted), snapshot.Status)
	assert.Equal(t, 100, snapshot.Progress)

	jobs, err := f.ops.ListJobs(10)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)

	counts, ok := f.ops.QueueStats()["jobs"].(map[string]int)
	require.True(t, ok)
	assert.Equal(t, 1, counts["total_jobs"])
	assert.Equal(t, 1, counts[string(operations.JobStatusCompleted)])
}

func TestOperationServiceFailedRun(t *testing.T) {
	f := newServiceFixture(t, false)

	job, err := f.ops.StartPipeline(context.Background(), RunRequest{Steps: []string{operations.StepIDLoad}})
	require.NoError(t, err)

	failed := f.wait(t, job.ID, operations.JobStatusFailed)
	assert.Contains(t, failed.Error, "movies export")
	assert.False(t, f.data.Ready())
}

func TestOperationServiceRejectsUnknownStep(t *testing.T) {
	f := newServiceFixture(t, true)

	_, err := f.ops.StartPipeline(context.Background(), RunRequest{Steps: []string{"render"}})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestOperationServiceLookups(t *testing.T) {
	f := newServiceFixture(t, true)

	_, err := f.ops.GetJob("nope")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	assert.True(t, apperrors.IsType(f.ops.CancelJob("nope"), apperrors.ErrTypeNotFound))

	_, err = f.ops.Snapshot("nope")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))

	assert.Equal(t, []string{
		operations.StepIDLoad, operations.StepIDClean, operations.StepIDAggregate,
		operations.StepIDAnalyze, operations.StepIDReport,
	}, f.ops.Steps())
	assert.Equal(t, 2, f.ops.QueueStats()["queue_cap"])
}
