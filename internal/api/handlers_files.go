package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docpersona/internal/fileset"
	"github.com/dgallion1/docpersona/internal/httpkit"
	"github.com/dgallion1/docpersona/internal/render"
)

type fileView struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Size  int64  `json:"size"`
}

type rejectedFile struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

func (s *Server) fileViews() []fileView {
	files := s.ctrl.Files()
	out := make([]fileView, len(files))
	for i, f := range files {
		out[i] = fileView{Index: i, Name: f.Name, Size: f.Size}
	}
	return out
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	httpkit.WriteJSON(w, http.StatusOK, map[string]any{"files": s.fileViews()})
}

// handleAddFiles accepts multipart "files". Each file is checked on its own;
// rejected files and duplicates do not fail the request.
func (s *Server) handleAddFiles(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxFileBytes*10+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		httpkit.JSONError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		httpkit.JSONError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	added, duplicates := []string{}, []string{}
	rejected := []rejectedFile{}
	for _, fh := range headers {
		h, err := intakeFile(fh, s.cfg.MaxFileBytes)
		if err != nil {
			rejected = append(rejected, rejectedFile{Filename: fh.Filename, Error: err.Error()})
			continue
		}
		if s.ctrl.AddFile(h) {
			added = append(added, h.Name)
		} else {
			duplicates = append(duplicates, h.Name)
		}
	}

	s.log.Info("files added", "added", len(added), "duplicates", len(duplicates), "rejected", len(rejected))
	httpkit.WriteJSON(w, http.StatusOK, map[string]any{
		"added":      added,
		"duplicates": duplicates,
		"rejected":   rejected,
		"files":      s.fileViews(),
	})
}

func (s *Server) handleRemoveFile(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		httpkit.JSONError(w, "index must be an integer", http.StatusBadRequest)
		return
	}
	if err := s.ctrl.RemoveFile(index); err != nil {
		var idxErr *fileset.IndexError
		if errors.As(err, &idxErr) {
			httpkit.JSONError(w, err.Error(), http.StatusNotFound)
			return
		}
		httpkit.JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	httpkit.WriteJSON(w, http.StatusOK, map[string]any{"files": s.fileViews()})
}

func (s *Server) handleFilesHTML(w http.ResponseWriter, r *http.Request) {
	fragment, err := render.FileList(s.ctrl.Files())
	if err != nil {
		httpkit.JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(fragment))
}
