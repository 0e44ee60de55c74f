package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dgallion1/docpersona/internal/httpkit"
	"github.com/dgallion1/docpersona/internal/workflow"
)

type analyzeRequest struct {
	Persona string `json:"persona"`
	Job     string `json:"job"`
}

// handleAnalyze starts a run on the current file set. Validation is answered
// synchronously; the network phases are followed via /api/state or /api/events.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 64*1024)).Decode(&req); err != nil {
		httpkit.JSONError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}

	st, err := s.ctrl.Start(s.runCtx, req.Persona, req.Job)
	switch {
	case errors.Is(err, workflow.ErrAlreadyRunning):
		httpkit.WriteJSON(w, http.StatusConflict, map[string]any{"error": err.Error(), "state": st})
	case err != nil:
		httpkit.JSONError(w, err.Error(), http.StatusInternalServerError)
	case st.Status == workflow.StatusFailed:
		httpkit.WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": st.Message, "state": st})
	default:
		httpkit.WriteJSON(w, http.StatusAccepted, map[string]any{"state": st})
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	httpkit.WriteJSON(w, http.StatusOK, s.ctrl.State())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Reset(); err != nil {
		if errors.Is(err, workflow.ErrAlreadyRunning) {
			httpkit.JSONError(w, err.Error(), http.StatusConflict)
			return
		}
		httpkit.JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	httpkit.WriteJSON(w, http.StatusOK, s.ctrl.State())
}

// handleReport renders the result of the last successful run as HTML.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	st := s.ctrl.State()
	if st.Status != workflow.StatusSuccess || st.Result == nil {
		httpkit.JSONError(w, "no completed analysis", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.html.RenderResult(w, st.Result); err != nil {
		s.log.Error("render report", "error", err, "run_id", st.RunID)
	}
}
