package server

import (
	"net/http"

	"github.com/meridianhq/meridian/job"
)

const (
	// Default and max limits for job listing queries
	defaultJobLimit = 50
	maxJobLimit     = 200
)

// HandleJobs handles GET /api/jobs: list persisted jobs, newest first,
// optionally filtered by status.
func (s *Server) HandleJobs(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	limit := parseIntQueryParam(r, "limit", defaultJobLimit, 1, maxJobLimit)

	var status *job.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		if !job.IsValidStatus(raw) {
			writeError(w, http.StatusBadRequest, "unknown job status "+raw)
			return
		}
		value := job.Status(raw)
		status = &value
	}

	jobs, err := s.store.ListJobs(status, limit)
	if err != nil {
		s.logger.Errorw("Failed to list jobs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}
	if jobs == nil {
		jobs = []*job.Job{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(jobs),
		"jobs":  jobs,
	})
}

// HandleJob handles requests under /api/jobs/{id}. The "ws" segment is the
// websocket subscription for job updates; anything else is a job id.
func (s *Server) HandleJob(w http.ResponseWriter, r *http.Request) {
	parts := extractPathParts(r.URL.Path, "/api/jobs/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "missing job id")
		return
	}

	if parts[0] == "ws" {
		s.handleJobsWS(w, r)
		return
	}

	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	j, err := s.store.GetJob(parts[0])
	if err != nil {
		writeError(w, httpStatusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, j)
}
