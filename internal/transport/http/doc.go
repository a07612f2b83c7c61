// Package http implements the filmstats HTTP handlers.
//
// Handlers are thin: they parse and validate the request, call a service
// and render the result with go-chi/render. Errors go through
// errors.ErrorHandler, which answers with RFC 7807 problem details:
//
//	{
//	    "type": "/errors/validation",
//	    "title": "Bad Request",
//	    "status": 400,
//	    "detail": "Request validation failed",
//	    "instance": "/api/movies"
//	}
//
// # Routes
//
//	GET    /api/health                   health and readiness
//	GET    /api/version                  build information
//	GET    /api/summary                  aggregate summary
//	GET    /api/movies                   paged movie aggregates
//	GET    /api/movies/{movieID}         one movie aggregate
//	GET    /api/genres                   genre summary
//	GET    /api/years                    release year summary
//	GET    /api/languages                original language summary
//	GET    /api/ratings/distribution     rating value distribution
//	GET    /api/reports                  report artifacts
//	GET    /api/reports/{name}           one report artifact
//	POST   /api/pipeline/run             queue a pipeline run
//	GET    /api/pipeline/jobs[/{jobID}]  queued and finished runs
//	DELETE /api/pipeline/jobs/{jobID}    cancel a run
//	GET    /api/pipeline/operations/{id} live progress snapshot
//
// Data routes answer 503 until a run has published results.
package http
