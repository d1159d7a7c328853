package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/skillcoder/admission-scheduler/internal/logic/scheduler"
)

const maxBodyBytes = 1 << 12

func (s *Server) handleAdmission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := s.admission.EnqueueCommand(ctx, id); err != nil {
		s.writeError(w, r, err)

		return
	}

	s.writeJSON(w, r, http.StatusAccepted, admissionResponse{WorkloadID: id, Status: "accepted"})
}

func (s *Server) handleCompletion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req completionRequest

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		s.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})

		return
	}

	status := scheduler.Status(strings.ToLower(req.Status))

	result, err := s.admission.CompleteCommand(ctx, id, status)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	s.writeJSON(w, r, http.StatusOK, completionResponse{
		Workload: toWorkloadResponse(&result.Workload),
		Pool:     result.Pool,
		Capped:   result.Capped,
	})
}

func (s *Server) handleExhausted(w http.ResponseWriter, r *http.Request) {
	exhausted := s.admission.ExhaustedQuery()
	if exhausted == nil {
		exhausted = []scheduler.ExhaustedWorkload{}
	}

	s.writeJSON(w, r, http.StatusOK, exhausted)
}

func (s *Server) handleGetWorkload(w http.ResponseWriter, r *http.Request) {
	workload, err := s.store.GetWorkloadQuery(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	s.writeJSON(w, r, http.StatusOK, toWorkloadResponse(workload))
}

func (s *Server) handleListClusters(w http.ResponseWriter, r *http.Request) {
	clusters, err := s.store.ListClustersQuery(r.Context())
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	out := make([]clusterResponse, 0, len(clusters))
	for _, c := range clusters {
		out = append(out, clusterResponse{ID: c.ID, Name: c.Name, Pool: c.Pool})
	}

	s.writeJSON(w, r, http.StatusOK, out)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, scheduler.ErrEmptyWorkloadID),
		errors.Is(err, scheduler.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, scheduler.ErrWorkloadNotFound),
		errors.Is(err, scheduler.ErrClusterNotFound):
		return http.StatusNotFound
	case errors.Is(err, scheduler.ErrNotRunning):
		return http.StatusConflict
	case errors.Is(err, scheduler.ErrEnqueue),
		errors.Is(err, scheduler.ErrPersistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)

	if code >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed",
			"traceID", middleware.GetReqID(r.Context()),
			"path", r.URL.Path,
			"reason", err,
		)
	}

	s.writeJSON(w, r, code, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.ErrorContext(r.Context(), "failed to encode response",
			"traceID", middleware.GetReqID(r.Context()),
			"reason", err,
		)
	}
}
