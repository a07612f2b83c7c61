package http

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "filmstats/internal/errors"
	"filmstats/internal/middleware"
	"filmstats/internal/services"
)

// DataHandler serves movie aggregates, grouped statistics and report files
type DataHandler struct {
	service      DataServiceInterface
	validator    *middleware.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDataHandler creates a new data handler
func NewDataHandler(service DataServiceInterface, validator *middleware.Validator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if validator == nil {
		validator = middleware.NewValidator()
	}
	return &DataHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
	}
}

// RegisterRoutes adds the data routes to r. Report files are served even
// before the first run publishes results.
func (h *DataHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.ResultsCtx)
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/summary", h.GetSummary)
		r.Get("/movies", h.ListMovies)
		r.Get("/movies/{movieID}", h.GetMovie)
		r.Get("/genres", h.GetGenres)
		r.Get("/years", h.GetYears)
		r.Get("/languages", h.GetLanguages)
		r.Get("/ratings/distribution", h.GetRatingDistribution)
	})

	r.Get("/reports", h.ListReports)
	r.Get("/reports/{name}", h.DownloadReport)
}

// ResultsCtx answers 503 until a pipeline run has published results
func (h *DataHandler) ResultsCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.service.Ready() {
			h.errorHandler.HandleError(w, r, apierrors.ErrResultsNotReady)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetSummary handles GET /api/summary
func (h *DataHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, summary)
}

// ListMovies handles GET /api/movies
func (h *DataHandler) ListMovies(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseMovieQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	page, err := h.service.Movies(q)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, page)
}

// parseMovieQuery reads limit, offset, sort and min_ratings. Every bad
// parameter is reported, not just the first.
func (h *DataHandler) parseMovieQuery(r *http.Request) (services.MovieQuery, error) {
	values := r.URL.Query()
	q := services.MovieQuery{Sort: values.Get("sort")}

	var invalid []apierrors.ValidationError
	parse := func(name string, bits int) int64 {
		raw := values.Get(name)
		if raw == "" {
			return 0
		}
		n, err := strconv.ParseInt(raw, 10, bits)
		if err != nil {
			invalid = append(invalid, apierrors.ValidationError{Field: name, Message: name + " must be an integer"})
			return 0
		}
		return n
	}

	q.Limit = int(parse("limit", 32))
	q.Offset = int(parse("offset", 32))
	q.MinRatings = parse("min_ratings", 64)

	err := h.validator.ValidateStruct(q)
	if len(invalid) == 0 {
		return q, err
	}
	// Unparsed fields are zero here, so struct errors never repeat them
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		if fields, ok := apiErr.Details.([]apierrors.ValidationError); ok {
			invalid = append(invalid, fields...)
		}
	}
	return q, apierrors.NewValidationErrors(invalid)
}

// GetMovie handles GET /api/movies/{movieID}
func (h *DataHandler) GetMovie(w http.ResponseWriter, r *http.Request) {
	movie, err := h.service.Movie(chi.URLParam(r, "movieID"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, movie)
}

// GetGenres handles GET /api/genres
func (h *DataHandler) GetGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.service.Genres()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, genres)
}

// GetYears handles GET /api/years
func (h *DataHandler) GetYears(w http.ResponseWriter, r *http.Request) {
	years, err := h.service.Years()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, years)
}

// GetLanguages handles GET /api/languages
func (h *DataHandler) GetLanguages(w http.ResponseWriter, r *http.Request) {
	languages, err := h.service.Languages()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"languages": languages})
}

// GetRatingDistribution handles GET /api/ratings/distribution
func (h *DataHandler) GetRatingDistribution(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.service.RatingDistribution()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"buckets": buckets})
}

// ListReports handles GET /api/reports
func (h *DataHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.service.Reports(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}

// DownloadReport handles GET /api/reports/{name}
func (h *DataHandler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	path, err := h.service.ReportPath(name)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if filepath.Ext(name) == ".md" {
		contentType = "text/markdown; charset=utf-8"
	}
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	h.logger.DebugContext(r.Context(), "serving report", slog.String("name", name))
	http.ServeFile(w, r, path)
}
