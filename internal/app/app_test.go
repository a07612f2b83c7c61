package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filmstats/internal/config"
	"filmstats/internal/infrastructure"
	"filmstats/internal/shared/testutil"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.BaseDir = t.TempDir()
	cfg.Pipeline.TopRatedMinRatings = 1
	cfg.Pipeline.GenreReportThreshold = 1
	cfg.Pipeline.GenreChartThreshold = 1
	cfg.Server.AllowedOrigins = nil
	return cfg
}

func newTestApplication(t *testing.T, cfg *config.Config) (*Application, *httptest.Server) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)

	telemetry, err := infrastructure.InitializeTelemetry(cfg.Telemetry, "test", logger)
	require.NoError(t, err)

	a, err := NewApplication(cfg, telemetry, logger)
	require.NoError(t, err)

	server := httptest.NewServer(a.Router)
	t.Cleanup(func() {
		server.Close()
		assert.NoError(t, a.Stop(context.Background()))
		_ = telemetry.Shutdown(context.Background())
	})
	return a, server
}

func getJSON(t *testing.T, url string, into interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if into != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
	}
	return resp.StatusCode
}

func TestApplicationServesPipelineResults(t *testing.T) {
	cfg := newTestConfig(t)
	testutil.WriteRawFixtures(t, cfg.ResolvePaths().DataDir)
	_, server := newTestApplication(t, cfg)

	var health map[string]interface{}
	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, server.URL+"/api/health", &health))
	assert.Equal(t, "not_ready", health["status"])
	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, server.URL+"/api/movies", nil))

	resp, err := http.Post(server.URL+"/api/pipeline/run", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	var job map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&job))
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	jobID, _ := job["id"].(string)
	require.NotEmpty(t, jobID)

	require.Eventually(t, func() bool {
		var j map[string]interface{}
		getJSON(t, server.URL+"/api/pipeline/jobs/"+jobID, &j)
		return j["status"] == "completed"
	}, 10*time.Second, 20*time.Millisecond)

	var page struct {
		Movies []map[string]interface{} `json:"movies"`
		Total  int                      `json:"total"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/movies?sort=title", &page))
	assert.Positive(t, page.Total)
	require.NotEmpty(t, page.Movies)

	movieID, _ := page.Movies[0]["movie_id"].(string)
	assert.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/movies/"+movieID, nil))
	assert.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/genres", nil))

	var reports struct {
		Reports []map[string]interface{} `json:"reports"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/reports", &reports))
	names := make([]string, 0, len(reports.Reports))
	for _, r := range reports.Reports {
		names = append(names, r["name"].(string))
	}
	assert.Contains(t, names, "genre_analysis_report.md")

	resp, err = http.Get(server.URL + "/api/reports/genre_analysis_report.md")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body)

	assert.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/health", &health))
	assert.Equal(t, "ready", health["status"])

	resp, err = http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	metrics, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(metrics), "filmstats_http_requests_total")
}

func TestApplicationPreloadsResults(t *testing.T) {
	cfg := newTestConfig(t)
	testutil.WriteRawFixtures(t, cfg.ResolvePaths().DataDir)

	logger, _ := testutil.NewTestLogger(t)
	pipeline, err := NewPipeline(cfg, cfg.ResolvePaths(), nil, nil, logger)
	require.NoError(t, err)
	_, err = pipeline.Run(context.Background())
	require.NoError(t, err)
	pipeline.Manager.Shutdown()

	a, server := newTestApplication(t, cfg)
	assert.True(t, a.DataService.Ready())
	assert.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/summary", nil))
}

func TestApplicationWebSocketProgress(t *testing.T) {
	cfg := newTestConfig(t)
	testutil.WriteRawFixtures(t, cfg.ResolvePaths().DataDir)
	a, server := newTestApplication(t, cfg)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return a.WebSocketHub.ClientCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	resp, err := http.Post(server.URL+"/api/pipeline/run", "application/json", strings.NewReader(`{"steps":["load","clean"]}`))
	require.NoError(t, err)
	resp.Body.Close()

	deadline := time.Now().Add(10 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg struct {
			Type string                 `json:"type"`
			Data map[string]interface{} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg.Type == "operation:snapshot" && msg.Data["status"] == "completed" {
			assert.Equal(t, float64(100), msg.Data["progress"])
			return
		}
	}
}

func TestApplicationRoutingErrors(t *testing.T) {
	cfg := newTestConfig(t)
	_, server := newTestApplication(t, cfg)

	var problem map[string]interface{}
	assert.Equal(t, http.StatusNotFound, getJSON(t, server.URL+"/nowhere", &problem))
	assert.Equal(t, "/errors/not-found", problem["type"])

	req, _ := http.NewRequest(http.MethodPut, server.URL+"/api/pipeline/run", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	var version map[string]interface{}
	assert.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/version", &version))
	assert.Equal(t, Version, version["version"])
}

func TestApplicationDropsExpiredJobs(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Server.JobRetention = 50 * time.Millisecond
	testutil.WriteRawFixtures(t, cfg.ResolvePaths().DataDir)
	_, server := newTestApplication(t, cfg)

	resp, err := http.Post(server.URL+"/api/pipeline/run", "application/json", strings.NewReader(`{"steps":["load"]}`))
	require.NoError(t, err)
	var job map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&job))
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	jobID, _ := job["id"].(string)
	require.NotEmpty(t, jobID)

	require.Eventually(t, func() bool {
		return getJSON(t, server.URL+"/api/pipeline/jobs/"+jobID, nil) == http.StatusNotFound
	}, 10*time.Second, 20*time.Millisecond)
}
