// Package services holds the application services behind the HTTP API.
//
// DataService keeps the results of the latest pipeline run in memory. The
// operations manager publishes into it after every successful run, and on
// startup it can be filled from the processed outputs of an earlier run:
//
//	data := services.NewDataService(cfg, paths, logger)
//	manager.SetResultSink(data)
//	if err := data.LoadFromDisk(ctx); err != nil {
//		logger.Warn("no earlier results", slog.String("error", err.Error()))
//	}
//
// OperationService queues pipeline runs on the job queue and exposes their
// progress snapshots. HealthService reports readiness of the data
// directory, the pipeline and the published results.
//
// Services return *errors.AppError values so the HTTP layer can map them
// to problem details.
package services
