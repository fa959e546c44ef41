package routes

import (
	"net/http"

	"github.com/YingY4ang/Transcriber/internal/api/handlers"
	"github.com/YingY4ang/Transcriber/internal/api/middleware"
	"github.com/YingY4ang/Transcriber/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	uploadHandler *handlers.UploadHandler
	resultHandler *handlers.ResultHandler
	taskHandler   *handlers.TaskHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	uploadHandler *handlers.UploadHandler,
	resultHandler *handlers.ResultHandler,
	taskHandler *handlers.TaskHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:           http.NewServeMux(),
		uploadHandler: uploadHandler,
		resultHandler: resultHandler,
		taskHandler:   taskHandler,
		metrics:       metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Intake endpoints
	r.mux.HandleFunc("GET /get-upload-url", r.uploadHandler.GetUploadURL)
	r.mux.HandleFunc("PUT /upload/{key...}", r.uploadHandler.Upload)
	r.mux.HandleFunc("POST /upload-complete", r.uploadHandler.UploadComplete)

	// Result endpoints
	r.mux.HandleFunc("GET /result/{key...}", r.resultHandler.GetResult)
	r.mux.HandleFunc("GET /report/{key...}", r.resultHandler.GetReport)

	// Task status updates. The audio key travels as a query parameter
	// because its slashes collide with a path wildcard in any non-final
	// position.
	r.mux.HandleFunc("PATCH /tasks/{taskID}", r.taskHandler.UpdateTaskStatus)

	// Client configuration
	r.mux.HandleFunc("GET /config", r.resultHandler.GetConfig)

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS must be outermost so error responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
