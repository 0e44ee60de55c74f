package api

import (
	"net/http"

	"github.com/dgallion1/docpersona/internal/httpkit"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		httpkit.JSONError(w, "phase stats unavailable", http.StatusServiceUnavailable)
		return
	}
	httpkit.WriteJSON(w, http.StatusOK, map[string]any{"phases": s.stats.Stats()})
}

// handleLibrary lists the documents the analysis service already holds.
func (s *Server) handleLibrary(w http.ResponseWriter, r *http.Request) {
	if s.library == nil {
		httpkit.JSONError(w, "document library unavailable", http.StatusServiceUnavailable)
		return
	}
	docs, err := s.library.ListDocuments(r.Context())
	if err != nil {
		s.log.Warn("list library", "error", err)
		httpkit.JSONError(w, "failed to list documents: "+err.Error(), http.StatusBadGateway)
		return
	}
	httpkit.WriteJSON(w, http.StatusOK, map[string]any{"documents": docs})
}
