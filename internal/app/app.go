package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"filmstats/internal/config"
	apierrors "filmstats/internal/errors"
	"filmstats/internal/infrastructure"
	customMiddleware "filmstats/internal/middleware"
	"filmstats/internal/operations"
	"filmstats/internal/services"
	handlers "filmstats/internal/transport/http"
	ws "filmstats/internal/websocket"
)

const (
	AppName = "filmstats"

	// jobQueueSize bounds the runs waiting behind the active one
	jobQueueSize = 8
)

var (
	// Version and BuildTime are set at link time
	Version   = "dev"
	BuildTime = ""
)

// Application wires the pipeline, the services and the HTTP server
type Application struct {
	Config    *config.Config
	Paths     *config.Paths
	Router    *chi.Mux
	Server    *http.Server
	Logger    *slog.Logger
	Telemetry *infrastructure.TelemetryProviders

	WebSocketHub     *ws.Hub
	Pipeline         *Pipeline
	JobQueue         *operations.JobQueue
	DataService      *services.DataService
	OperationService *services.OperationService
	HealthService    *services.HealthService

	errorHandler *apierrors.ErrorHandler
	validator    *customMiddleware.Validator
	stopQueue    context.CancelFunc
}

// NewApplication creates the server. telemetry is owned by the caller.
func NewApplication(cfg *config.Config, telemetry *infrastructure.TelemetryProviders, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}

	paths := cfg.ResolvePaths()
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	if telemetry == nil {
		t, err := infrastructure.InitializeTelemetry(config.TelemetryConfig{ServiceName: AppName}, Version, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		telemetry = t
	}

	app := &Application{
		Config:       cfg,
		Paths:        paths,
		Logger:       logger,
		Telemetry:    telemetry,
		errorHandler: apierrors.NewErrorHandler(logger, false),
		validator:    customMiddleware.NewValidator(),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	hubMetrics, err := ws.NewHubMetrics(a.Telemetry.Meter)
	if err != nil {
		return fmt.Errorf("failed to create websocket metrics: %w", err)
	}
	a.WebSocketHub = ws.NewHub(a.Logger, hubMetrics)
	a.WebSocketHub.Start()

	pipeline, err := NewPipeline(a.Config, a.Paths, a.WebSocketHub, a.Telemetry, a.Logger)
	if err != nil {
		return err
	}
	a.Pipeline = pipeline

	a.DataService = services.NewDataService(a.Config, a.Paths, a.Logger)
	pipeline.Manager.SetResultSink(a.DataService)

	// Previous results are served until the next run replaces them
	if err := a.DataService.LoadFromDisk(context.Background()); err != nil {
		a.Logger.Warn("no previous results loaded", slog.String("error", err.Error()))
	}

	a.JobQueue = operations.NewJobQueue(jobQueueSize, operations.NewMemoryJobStore(), pipeline.Manager, a.Logger)
	queueCtx, cancel := context.WithCancel(context.Background())
	a.stopQueue = cancel
	a.JobQueue.Start(queueCtx)
	go a.sweepJobs(queueCtx, a.Config.Server.JobRetention)

	a.OperationService = services.NewOperationService(pipeline.Manager, a.JobQueue, a.Logger)
	a.HealthService = services.NewHealthService(Version, BuildTime, a.Paths,
		pipeline.Manager, a.WebSocketHub, a.DataService, a.Logger)

	return nil
}

// sweepJobs drops finished jobs past retention until ctx is done
func (a *Application) sweepJobs(ctx context.Context, retention time.Duration) {
	interval := retention / 2
	if interval > time.Hour {
		interval = time.Hour
	}
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.JobQueue.CleanupFinished(retention)
		}
	}
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// These do not wrap the ResponseWriter, so /ws can hijack the connection
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.TraceContext)

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.Telemetry.Tracer, a.Pipeline.Metrics, a.Logger).Handler)
		r.Use(apierrors.NewRequestLogger(a.errorHandler, a.Logger).Handler)
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins: a.Config.Server.AllowedOrigins,
			Logger:         a.Logger,
		}))

		r.Handle("/ws", ws.NewHandler(a.WebSocketHub, a.Config.WebSocket, a.Config.Server.AllowedOrigins, a.Logger))
		a.setupAPIRoutes(r)
	})

	r.Handle("/metrics", handlers.NewMetricsHandler(a.Telemetry.MetricsHandler, a.errorHandler))

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		rl := a.Config.Server.RateLimit
		if rl.Enabled {
			r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger).Handler)
		}

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/version", healthHandler.Version)

		operationsHandler := handlers.NewOperationsHandler(a.OperationService, a.validator, a.Logger, a.errorHandler)
		operationsHandler.SetTracer(a.Telemetry.Tracer)
		r.Mount("/pipeline", operationsHandler.Routes())

		dataHandler := handlers.NewDataHandler(a.DataService, a.validator, a.Logger, a.errorHandler)
		dataHandler.RegisterRoutes(r)
	})
}

// createServer builds the http.Server. WriteTimeout must also cover report
// downloads.
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start starts serving in the background. A listen failure cancels ctx
// through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	timeout := a.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var serverErr error
	if a.Server != nil {
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			serverErr = fmt.Errorf("server shutdown error: %w", err)
		}
	}

	for _, op := range a.Pipeline.Manager.ListOperations() {
		if err := a.Pipeline.Manager.CancelOperation(op.ID); err != nil {
			a.Logger.ErrorContext(ctx, "Error cancelling run",
				slog.String("operation_id", op.ID),
				slog.String("error", err.Error()))
		}
	}

	if a.JobQueue != nil {
		if err := a.JobQueue.Stop(timeout); err != nil {
			a.Logger.ErrorContext(ctx, "Failed to stop job queue gracefully", slog.String("error", err.Error()))
		}
	}
	if a.stopQueue != nil {
		a.stopQueue()
	}

	a.WebSocketHub.Stop()
	a.Pipeline.Manager.Shutdown()

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return serverErr
}

// Run serves until SIGINT or SIGTERM, or until ctx is done
func (a *Application) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}

// performStartupHealthCheck warns about missing inputs and unwritable
// output directories
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	var warnings []string

	for name, dir := range map[string]string{
		"Processed": a.Paths.ProcessedDir,
		"Reports":   a.Paths.ReportsDir,
	} {
		testFile := filepath.Join(dir, ".write_test")
		if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s directory not writable: %s", name, dir))
			continue
		}
		os.Remove(testFile)
	}

	for _, file := range []string{a.Paths.MoviesCSV, a.Paths.RatingsCSV, a.Paths.UsersCSV} {
		if !config.FileExists(file) {
			a.Logger.InfoContext(ctx, "Raw export not found", slog.String("path", file))
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("startup health check warnings: %s", strings.Join(warnings, "; "))
	}

	a.Logger.InfoContext(ctx, "Startup health check passed")
	return nil
}
