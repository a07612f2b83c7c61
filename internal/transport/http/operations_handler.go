package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apierrors "filmstats/internal/errors"
	"filmstats/internal/infrastructure"
	"filmstats/internal/middleware"
	"filmstats/internal/services"
)

// maxJobListLimit caps GET /api/pipeline/jobs
const maxJobListLimit = 100

// OperationsHandler starts pipeline runs and reports their progress
type OperationsHandler struct {
	service      OperationServiceInterface
	validator    *middleware.Validator
	tracer       trace.Tracer
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewOperationsHandler creates a new operations handler
func NewOperationsHandler(service OperationServiceInterface, validator *middleware.Validator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *OperationsHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if validator == nil {
		validator = middleware.NewValidator()
	}

	return &OperationsHandler{
		service:      service,
		validator:    validator,
		tracer:       otel.Tracer(infrastructure.InstrumentationName),
		logger:       logger.With(slog.String("handler", "operations")),
		errorHandler: errorHandler,
	}
}

// SetTracer replaces the global tracer
func (h *OperationsHandler) SetTracer(tracer trace.Tracer) {
	if tracer != nil {
		h.tracer = tracer
	}
}

// Routes returns the pipeline routes
func (h *OperationsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.With(middleware.ContentTypeValidator("application/json")).Post("/run", h.StartRun)
	r.Get("/steps", h.ListSteps)

	r.Route("/jobs", func(r chi.Router) {
		r.Get("/", h.ListJobs)
		r.Get("/{jobID}", h.GetJob)
		r.Delete("/{jobID}", h.CancelJob)
	})

	r.Get("/operations/{operationID}", h.GetSnapshot)

	return r
}

// StartRun handles POST /api/pipeline/run. An empty body runs every step.
func (h *OperationsHandler) StartRun(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "pipeline.start",
		trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	var req services.RunRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		span.SetStatus(codes.Error, "invalid request")
		h.errorHandler.HandleError(w, r, err)
		return
	}
	span.SetAttributes(attribute.StringSlice("pipeline.steps", req.Steps))

	job, err := h.service.StartPipeline(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, services.ErrServiceUnavailable) {
			err = apierrors.ErrQueueFull
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	span.SetAttributes(
		attribute.String("job.id", job.ID),
		attribute.String("operation.id", job.OperationID),
	)
	w.Header().Set("Location", "/api/pipeline/jobs/"+job.ID)
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, job)
}

// ListSteps handles GET /api/pipeline/steps
func (h *OperationsHandler) ListSteps(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{"steps": h.service.Steps()})
}

// ListJobs handles GET /api/pipeline/jobs
func (h *OperationsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxJobListLimit {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("limit", "limit must be between 1 and 100"))
			return
		}
		limit = n
	}

	jobs, err := h.service.ListJobs(limit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"jobs":  jobs,
		"count": len(jobs),
		"queue": h.service.QueueStats(),
	})
}

// GetJob handles GET /api/pipeline/jobs/{jobID}
func (h *OperationsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.service.GetJob(chi.URLParam(r, "jobID"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, job)
}

// CancelJob handles DELETE /api/pipeline/jobs/{jobID}
func (h *OperationsHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if err := h.service.CancelJob(jobID); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "pipeline job cancelled", slog.String("job_id", jobID))
	render.JSON(w, r, map[string]string{
		"job_id": jobID,
		"status": "cancelled",
	})
}

// GetSnapshot handles GET /api/pipeline/operations/{operationID}
func (h *OperationsHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Snapshot(chi.URLParam(r, "operationID"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, snapshot)
}
