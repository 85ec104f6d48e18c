package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/ctxlog"

	"github.com/clinboard/clinboard/pkg/domain/types"
	"github.com/clinboard/clinboard/pkg/usecase"
	"github.com/clinboard/clinboard/pkg/utils/apperr"
)

// Server represents the HTTP server
type Server struct {
	*http.Server
	router     chi.Router
	workloadUC usecase.WorkloadReader
	trendUC    usecase.TrendReader
}

// NewServer creates a new HTTP server serving the workload API.
// refreshToken guards the recomputation endpoint used by the external
// scheduler; when empty the endpoint is disabled.
func NewServer(
	ctx context.Context,
	addr string,
	workloadUC usecase.WorkloadReader,
	trendUC usecase.TrendReader,
	refreshToken string,
) (*Server, error) {
	router := chi.NewRouter()

	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)

	server := &Server{
		Server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
		router:     router,
		workloadUC: workloadUC,
		trendUC:    trendUC,
	}

	// Health check
	router.Get("/health", handleHealth)

	// API routes
	router.Route("/api", func(r chi.Router) {
		r.Route("/workloads", func(r chi.Router) {
			r.Get("/", server.handleWorkloads)
			r.Get("/trend", server.handleTrend)

			if refreshToken != "" {
				r.With(RequireToken(refreshToken)).Post("/refresh", server.handleRefresh)
			}
		})
	})

	return server, nil
}

// handleHealth handles health check requests
func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "clinboard",
	})
}

// handleWorkloads serves GET /api/workloads?studyIds=...&force=bool
func (s *Server) handleWorkloads(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ids := types.ParseStudyIDs(r.URL.Query().Get("studyIds"))
	force, ok := parseForce(r.URL.Query().Get("force"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid force parameter")
		return
	}

	list, err := s.workloadUC.GetWorkloads(ctx, ids, force)
	if err != nil {
		apperr.Handle(ctx, err)
		writeError(w, http.StatusInternalServerError, "failed to compute workloads")
		return
	}

	writeJSON(ctx, w, http.StatusOK, list)
}

// handleTrend serves GET /api/workloads/trend?studyIds=...
func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ids := types.ParseStudyIDs(r.URL.Query().Get("studyIds"))

	series, err := s.trendUC.GetTrend(ctx, ids)
	if err != nil {
		apperr.Handle(ctx, err)
		writeError(w, http.StatusInternalServerError, "failed to build trend")
		return
	}

	writeJSON(ctx, w, http.StatusOK, series)
}

// handleRefresh serves POST /api/workloads/refresh for the external
// scheduled job: a forced recomputation of the requested studies
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ids := types.ParseStudyIDs(r.URL.Query().Get("studyIds"))
	if len(ids) == 0 {
		writeError(w, http.StatusBadRequest, "studyIds is required")
		return
	}

	list, err := s.workloadUC.GetWorkloads(ctx, ids, true)
	if err != nil {
		apperr.Handle(ctx, err)
		writeError(w, http.StatusInternalServerError, "failed to refresh workloads")
		return
	}

	writeJSON(ctx, w, http.StatusOK, list)
}

func parseForce(v string) (force, ok bool) {
	switch v {
	case "", "false":
		return false, true
	case "true":
		return true, true
	default:
		return false, false
	}
}

// writeJSON writes a JSON response
func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		ctxlog.From(ctx).Error("Failed to encode response", "error", err)
	}
}

// writeError writes an error response. Internal details stay in the logs;
// API consumers only ever see the generic message.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
