package services

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filmstats/internal/shared/testutil"
	"filmstats/pkg/contracts/domain"
)

type staticClients int

func (c staticClients) ClientCount() int { return int(c) }

func TestHealthCheck(t *testing.T) {
	f := newServiceFixture(t, false)
	logger, _ := testutil.NewTestLogger(t)
	hs := NewHealthService("1.2.3", "", f.paths, f.manager, staticClients(2), f.data, logger)

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, StatusNotReady, status.Status)
	assert.Equal(t, StatusNotReady, status.Services["data_dir"].Status)
	assert.Equal(t, StatusReady, status.Services["pipeline"].Status)
	assert.Equal(t, StatusNotReady, status.Services["results"].Status)
	assert.Equal(t, 2, status.Runtime["websocket_clients"])

	require.NoError(t, os.MkdirAll(f.paths.DataDir, 0755))
	f.data.Publish([]domain.MovieAggregate{{MovieID: "alpha"}}, domain.AggregateSummary{MoviesWithRatings: 1}, nil)

	status = hs.HealthCheck(context.Background())
	assert.Equal(t, StatusReady, status.Status)
	assert.Equal(t, "1.2.3", status.Version)
}

func TestHealthWithoutPipeline(t *testing.T) {
	_, paths := newTestDataService(t)
	hs := NewHealthService("dev", "", paths, nil, nil, nil, nil)

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, StatusNotReady, status.Services["pipeline"].Status)
	assert.NotContains(t, status.Runtime, "websocket_clients")
}

func TestHealthVersion(t *testing.T) {
	_, paths := newTestDataService(t)

	v := NewHealthService("1.0.0", "2026-10-01T00:00:00Z", paths, nil, nil, nil, nil).Version()
	assert.Equal(t, "1.0.0", v["version"])
	assert.Equal(t, "2026-10-01T00:00:00Z", v["build_time"])

	v = NewHealthService("1.0.0", "", paths, nil, nil, nil, nil).Version()
	assert.NotContains(t, v, "build_time")
}
