// Package service is a small reference implementation of the PDF analysis
// service, used for local development and end-to-end tests of the client.
package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/docpersona/internal/analysis"
	"github.com/dgallion1/docpersona/internal/fileset"
	"github.com/dgallion1/docpersona/internal/httpkit"
)

// Config holds the service settings.
type Config struct {
	APIKey         string
	MaxUploadBytes int64
	TopSections    int
	TopSubsections int
}

// Server is the HTTP API of the reference analysis service.
type Server struct {
	router   chi.Router
	store    *Store
	analyzer *Analyzer
	log      *slog.Logger
	cfg      Config
}

func NewServer(store *Store, log *slog.Logger, cfg Config) *Server {
	s := &Server{
		store:    store,
		analyzer: NewAnalyzer(store, cfg.TopSections, cfg.TopSubsections, log),
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(httpkit.RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(httpkit.AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post(analysis.UploadPath, s.handleUploadMultiple)
		r.Post(analysis.AnalyzePath, s.handleAnalyze)
		r.Post(analysis.OutlinePath, s.handleOutline)
		r.Get(analysis.DocumentsPath, s.handleListDocuments)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleUploadMultiple(w http.ResponseWriter, r *http.Request) {
	// Ten files plus form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+1024*1024)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		httpkit.JSONError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File[analysis.FilesField]
	if len(files) == 0 {
		files = r.MultipartForm.File["files"]
	}
	if len(files) == 0 {
		httpkit.JSONError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	saved := make([]string, 0, len(files))
	for _, fh := range files {
		name, err := s.saveUpload(fh)
		if err != nil {
			uploadError(w, err)
			return
		}
		saved = append(saved, name)
	}

	s.log.Info("uploaded documents",
		"count", len(saved),
		"persona", r.FormValue("persona"),
		"job_to_be_done", r.FormValue("job_to_be_done"),
	)
	httpkit.WriteJSON(w, http.StatusOK, map[string]any{
		"uploaded":       saved,
		"persona":        r.FormValue("persona"),
		"job_to_be_done": r.FormValue("job_to_be_done"),
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analysis.Request
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		httpkit.JSONError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Documents) == 0 {
		httpkit.JSONError(w, "documents is required", http.StatusBadRequest)
		return
	}

	res, err := s.analyzer.Analyze(req)
	if err != nil {
		s.log.Error("analysis failed", "error", err)
		httpkit.JSONError(w, "analysis failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.log.Info("analysis complete",
		"challenge_id", req.ChallengeInfo.ChallengeID,
		"documents", len(res.Metadata.InputDocuments),
		"sections", len(res.ExtractedSections),
	)
	httpkit.WriteJSON(w, http.StatusOK, res)
}

func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		httpkit.JSONError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		httpkit.JSONError(w, "file is required", http.StatusBadRequest)
		return
	}
	name, err := s.saveUpload(files[0])
	if err != nil {
		uploadError(w, err)
		return
	}

	doc, err := s.store.Document(name)
	if err != nil {
		httpkit.JSONError(w, "failed to read PDF: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	httpkit.WriteJSON(w, http.StatusOK, Outline(name, doc))
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.List()
	if err != nil {
		httpkit.JSONError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	httpkit.WriteJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

type httpError struct {
	msg  string
	code int
}

func (e *httpError) Error() string { return e.msg }

func uploadError(w http.ResponseWriter, err error) {
	var he *httpError
	if errors.As(err, &he) {
		httpkit.JSONError(w, he.msg, he.code)
		return
	}
	httpkit.JSONError(w, err.Error(), http.StatusInternalServerError)
}

// saveUpload checks one multipart file and stores it.
func (s *Server) saveUpload(fh *multipart.FileHeader) (string, error) {
	name := httpkit.SanitizeFilename(fh.Filename)

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", name, err)
	}
	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	f.Close()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return "", &httpError{fmt.Sprintf("%s exceeds max size (%d bytes)", name, s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge}
	}
	if _, err := fileset.Intake(name, data, s.cfg.MaxUploadBytes); err != nil {
		return "", &httpError{err.Error(), http.StatusBadRequest}
	}
	return s.store.Save(name, data)
}
