package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docpersona/internal/fileset"
)

func TestClient_UploadFilesMultipart(t *testing.T) {
	var gotNames []string
	var gotPersona, gotJob, gotAuth, gotReqID string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, UploadPath, r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		for _, fh := range r.MultipartForm.File[FilesField] {
			gotNames = append(gotNames, fh.Filename)
		}
		gotPersona = r.FormValue("persona")
		gotJob = r.FormValue("job_to_be_done")
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", WithAPIKey("secret"))
	files := []fileset.FileHandle{
		fileset.NewHandle("a.pdf", []byte("%PDF-a")),
		fileset.NewHandle("b.pdf", []byte("%PDF-b")),
		fileset.NewHandle("c.pdf", []byte("%PDF-c")),
	}
	ctx := WithRequestID(context.Background(), "run-1")
	err := c.UploadFiles(ctx, files, "Researcher", "Summarize methods")
	require.NoError(t, err)

	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf"}, gotNames)
	assert.Equal(t, "Researcher", gotPersona)
	assert.Equal(t, "Summarize methods", gotJob)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "run-1", gotReqID)
}

func TestClient_UploadFilesStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "disk full", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).UploadFiles(context.Background(), nil, "p", "j")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, "disk full", statusErr.Body)
}

func TestClient_UploadFilesTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := NewClient(url).UploadFiles(context.Background(), nil, "p", "j")
	require.Error(t, err)
	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
}

func TestClient_AnalyzeRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, AnalyzePath, r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Documents, 3)
		assert.Equal(t, "a.pdf", req.Documents[0].Title)
		assert.Equal(t, "Researcher", req.Persona.Role)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"metadata": {"input_documents": ["a.pdf","b.pdf","c.pdf"]},
			"extracted_sections": [
				{"document":"a.pdf","section_title":"Methods","importance_rank":1,"page_number":2},
				{"document":"b.pdf","section_title":"Results","importance_rank":0.42,"page_number":5}
			],
			"subsection_analysis": [{"document":"a.pdf","refined_text":"We used X.","page_number":2}]
		}`)
	}))
	defer srv.Close()

	req := Request{
		ChallengeInfo: ChallengeInfo{ChallengeID: "round_1b_002", TestCaseName: "persona"},
		Documents: []Document{
			{Filename: "a.pdf", Title: "a.pdf"},
			{Filename: "b.pdf", Title: "b.pdf"},
			{Filename: "c.pdf", Title: "c.pdf"},
		},
		Persona:     Persona{Role: "Researcher"},
		JobToBeDone: JobToBeDone{Task: "Summarize methods"},
	}
	res, err := NewClient(srv.URL).Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, res.Metadata.InputDocuments, 3)
	require.Len(t, res.ExtractedSections, 2)
	assert.Equal(t, "Methods", res.ExtractedSections[0].SectionTitle)
	assert.InDelta(t, 0.42, res.ExtractedSections[1].ImportanceRank, 1e-9)
	assert.Len(t, res.SubsectionAnalysis, 1)
}

func TestDecodeResult_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"missing metadata", `{"extracted_sections":[],"subsection_analysis":[]}`},
		{"missing sections", `{"metadata":{"input_documents":[]},"subsection_analysis":[]}`},
		{"missing subsections", `{"metadata":{"input_documents":[]},"extracted_sections":[]}`},
		{"wrong section type", `{"metadata":{},"extracted_sections":{"a":1},"subsection_analysis":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeResult([]byte(tt.body))
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestDecodeResult_EmptyArraysAreValid(t *testing.T) {
	res, err := DecodeResult([]byte(`{"metadata":{"input_documents":[]},"extracted_sections":[],"subsection_analysis":[]}`))
	require.NoError(t, err)
	assert.Empty(t, res.ExtractedSections)
}

func TestClient_ListDocuments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		io.WriteString(w, `{"documents":[{"filename":"a.pdf","size":10}]}`)
	}))
	defer srv.Close()

	docs, err := NewClient(srv.URL).ListDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, LibraryDocument{Filename: "a.pdf", Size: 10}, docs[0])
}

func TestClient_ExtractOutline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, OutlinePath, r.URL.Path)
		_, fh, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "one.pdf", fh.Filename)
		io.WriteString(w, `{"filename":"one.pdf","title":"One","outline":[{"level":"H1","text":"Intro","page":1}],"total_pages":3}`)
	}))
	defer srv.Close()

	out, err := NewClient(srv.URL).ExtractOutline(context.Background(), fileset.NewHandle("one.pdf", []byte("%PDF")))
	require.NoError(t, err)
	assert.Equal(t, "One", out.Title)
	assert.Equal(t, 3, out.TotalPages)
	require.Len(t, out.Outline, 1)
	assert.Equal(t, "H1", out.Outline[0].Level)
}
