package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "filmstats/internal/errors"
	"filmstats/internal/files"
	"filmstats/internal/services"
	"filmstats/internal/shared/testutil"
	"filmstats/pkg/contracts/domain"
)

func newDataRouter(t *testing.T, svc *MockDataService) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	errorHandler := apierrors.NewErrorHandler(logger, false)
	r := chi.NewRouter()
	NewDataHandler(svc, nil, logger, errorHandler).RegisterRoutes(r)
	return r
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestDataHandler_ListMovies(t *testing.T) {
	page := &services.MoviePage{
		Movies: []domain.MovieAggregate{{MovieID: "alpha", RatingCount: 3}},
		Total:  1,
		Limit:  10,
	}

	tests := []struct {
		name           string
		target         string
		setupMock      func(*MockDataService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "defaults",
			target: "/movies",
			setupMock: func(m *MockDataService) {
				m.On("Movies", services.MovieQuery{}).Return(page, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"movie_id":"alpha"`,
		},
		{
			name:   "all parameters",
			target: "/movies?limit=10&offset=20&sort=title&min_ratings=100",
			setupMock: func(m *MockDataService) {
				m.On("Movies", services.MovieQuery{Limit: 10, Offset: 20, Sort: "title", MinRatings: 100}).Return(page, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"total":1`,
		},
		{
			name:           "non numeric limit",
			target:         "/movies?limit=ten&offset=-",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"offset must be an integer"`,
		},
		{
			name:           "limit above maximum",
			target:         "/movies?limit=501",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"field":"limit"`,
		},
		{
			name:           "negative min_ratings",
			target:         "/movies?min_ratings=-1",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"field":"min_ratings"`,
		},
		{
			name:           "unknown sort key",
			target:         "/movies?sort=popularity",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"sort must be one of: rating_count, rating_mean`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDataService)
			svc.On("Ready").Return(true)
			if tt.setupMock != nil {
				tt.setupMock(svc)
			}

			rec := serve(newDataRouter(t, svc), http.MethodGet, tt.target)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestDataHandler_GetMoviesReportsEveryBadParameter(t *testing.T) {
	tests := []struct {
		name   string
		target string
		fields []string
	}{
		{
			name:   "parse and range errors together",
			target: "/movies?limit=abc&offset=-1",
			fields: []string{"limit", "offset"},
		},
		{
			name:   "parse error with bad sort",
			target: "/movies?min_ratings=x&sort=popularity&limit=501",
			fields: []string{"min_ratings", "limit", "sort"},
		},
		{
			name:   "overflow reported once",
			target: "/movies?limit=99999999999",
			fields: []string{"limit"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDataService)
			svc.On("Ready").Return(true)

			rec := serve(newDataRouter(t, svc), http.MethodGet, tt.target)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			details, ok := decodeBody(t, rec)["details"].([]interface{})
			require.True(t, ok)
			fields := make([]string, 0, len(details))
			for _, d := range details {
				fields = append(fields, d.(map[string]interface{})["field"].(string))
			}
			assert.ElementsMatch(t, tt.fields, fields)
			svc.AssertNotCalled(t, "Movies", mock.Anything)
		})
	}
}

func TestDataHandler_NotReady(t *testing.T) {
	svc := new(MockDataService)
	svc.On("Ready").Return(false)
	router := newDataRouter(t, svc)

	for _, target := range []string{"/summary", "/movies", "/movies/alpha", "/genres", "/years", "/languages", "/ratings/distribution"} {
		rec := serve(router, http.MethodGet, target)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, target)
		assert.Equal(t, "RESULTS_NOT_READY", decodeBody(t, rec)["error_code"], target)
	}
	svc.AssertNotCalled(t, "Movies", mock.Anything)
}

func TestDataHandler_Lookups(t *testing.T) {
	year := 1999
	tests := []struct {
		name           string
		target         string
		setupMock      func(*MockDataService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "movie found",
			target: "/movies/alpha",
			setupMock: func(m *MockDataService) {
				m.On("Movie", "alpha").Return(&domain.MovieAggregate{MovieID: "alpha", YearReleased: &year}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"year_released":1999`,
		},
		{
			name:   "movie missing",
			target: "/movies/nope",
			setupMock: func(m *MockDataService) {
				m.On("Movie", "nope").Return(nil, apierrors.NewNotFoundError("movie nope"))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"NOT_FOUND"`,
		},
		{
			name:   "summary",
			target: "/summary",
			setupMock: func(m *MockDataService) {
				m.On("Summary").Return(&domain.AggregateSummary{MoviesWithRatings: 4}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"movies_with_ratings":4`,
		},
		{
			name:   "genres",
			target: "/genres",
			setupMock: func(m *MockDataService) {
				m.On("Genres").Return(&domain.GenreAnalysis{
					Genres:          []domain.GenreStats{{Key: "Drama", MovieCount: 2}},
					MoviesWithGenre: 2,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"key":"Drama"`,
		},
		{
			name:   "genres without analysis",
			target: "/genres",
			setupMock: func(m *MockDataService) {
				m.On("Genres").Return(nil, apierrors.NewNotFoundError("analysis results"))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"analysis results not found"`,
		},
		{
			name:   "years",
			target: "/years",
			setupMock: func(m *MockDataService) {
				m.On("Years").Return(&domain.YearAnalysis{MoviesUndated: 1}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"movies_undated":1`,
		},
		{
			name:   "languages",
			target: "/languages",
			setupMock: func(m *MockDataService) {
				m.On("Languages").Return([]domain.LanguageStats{{Key: "en"}}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"languages":[{"key":"en"`,
		},
		{
			name:   "rating distribution",
			target: "/ratings/distribution",
			setupMock: func(m *MockDataService) {
				m.On("RatingDistribution").Return([]domain.RatingBucket{{RatingVal: 8, RatingCount: 3, Share: 0.75}}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"share":0.75`,
		},
		{
			name:   "internal error",
			target: "/summary",
			setupMock: func(m *MockDataService) {
				m.On("Summary").Return(nil, errors.New("boom"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"Internal Server Error"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDataService)
			svc.On("Ready").Return(true)
			tt.setupMock(svc)

			rec := serve(newDataRouter(t, svc), http.MethodGet, tt.target)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestDataHandler_Reports(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "genre_analysis_report.md")
	require.NoError(t, os.WriteFile(path, []byte("# Genre analysis\n"), 0644))

	svc := new(MockDataService)
	svc.On("Reports").Return([]files.FileInfo{{Path: path, Name: "genre_analysis_report.md", Size: 17}}, nil)
	svc.On("ReportPath", "genre_analysis_report.md").Return(path, nil)
	svc.On("ReportPath", "missing.md").Return("", apierrors.NewNotFoundError("report missing.md"))
	router := newDataRouter(t, svc)

	t.Run("list works before results are published", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/reports")
		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, float64(1), body["count"])
		assert.NotContains(t, rec.Body.String(), dir)
	})

	t.Run("download", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/reports/genre_analysis_report.md")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, "# Genre analysis\n", rec.Body.String())
	})

	t.Run("missing", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/reports/missing.md")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	svc.AssertNotCalled(t, "Ready")
}
