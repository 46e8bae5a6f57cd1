package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/outliner/internal/pipeline"
	"github.com/dgallion1/outliner/internal/render"
)

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

func (s *Server) handleJobOutline(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	s.writeOutline(w, job, r.URL.Query().Get("format"))
}

// writeOutline renders a job's outline, or the reason there is none.
func (s *Server) writeOutline(w http.ResponseWriter, job *pipeline.Job, format string) {
	snap := job.Snapshot()
	switch {
	case snap.Status == pipeline.StatusFailed:
		msg := "document could not be outlined"
		if len(snap.Errors) > 0 {
			msg += ": " + strings.Join(snap.Errors, "; ")
		}
		jsonError(w, msg, http.StatusUnprocessableEntity)
		return
	case !snap.Status.Terminal():
		jsonError(w, "job is "+string(snap.Status), http.StatusConflict)
		return
	}

	o, ok := job.Result()
	if !ok {
		jsonError(w, "job has no outline", http.StatusInternalServerError)
		return
	}
	body, ctype, err := render.Render(o, format)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", ctype)
	w.Write(body)
}
