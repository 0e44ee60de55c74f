package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/dgallion1/docpersona/internal/fileset"
)

const (
	UploadPath    = "/api/upload-multiple"
	AnalyzePath   = "/api/analyze-persona"
	DocumentsPath = "/api/documents"
	OutlinePath   = "/api/upload"

	// FilesField is the repeated multipart field carrying the PDFs.
	FilesField = "files[]"
)

// Client talks to the PDF analysis service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithAPIKey sends the key as a bearer token on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// NewClient creates a client. Deadlines come from the caller's context, so the
// default HTTP client has no overall timeout.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatusError is a non-2xx response from the service.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

type requestIDKey struct{}

// WithRequestID attaches an id that is sent as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// UploadFiles sends every file under the repeated files[] field along with
// the persona and job text fields. The response body is ignored.
func (c *Client) UploadFiles(ctx context.Context, files []fileset.FileHandle, persona, job string) error {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	for _, f := range files {
		part, err := writer.CreateFormFile(FilesField, f.Name)
		if err != nil {
			return fmt.Errorf("create form file %s: %w", f.Name, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return fmt.Errorf("write form file %s: %w", f.Name, err)
		}
	}
	if err := writer.WriteField("persona", persona); err != nil {
		return fmt.Errorf("write persona field: %w", err)
	}
	if err := writer.WriteField("job_to_be_done", job); err != nil {
		return fmt.Errorf("write job field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	_, err := c.do(ctx, "upload files", http.MethodPost, UploadPath, writer.FormDataContentType(), body)
	return err
}

// Analyze posts the structured request and decodes the result.
func (c *Client) Analyze(ctx context.Context, req Request) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal analyze request: %w", err)
	}
	respBody, err := c.do(ctx, "analyze", http.MethodPost, AnalyzePath, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return DecodeResult(respBody)
}

// ListDocuments returns the service's document library.
func (c *Client) ListDocuments(ctx context.Context) ([]LibraryDocument, error) {
	respBody, err := c.do(ctx, "list documents", http.MethodGet, DocumentsPath, "", nil)
	if err != nil {
		return nil, err
	}
	var result struct {
		Documents []LibraryDocument `json:"documents"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	return result.Documents, nil
}

// ExtractOutline uploads one file in single-document mode and returns its outline.
func (c *Client) ExtractOutline(ctx context.Context, f fileset.FileHandle) (*Outline, error) {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", f.Name)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(f.Data); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	respBody, err := c.do(ctx, "extract outline", http.MethodPost, OutlinePath, writer.FormDataContentType(), body)
	if err != nil {
		return nil, err
	}
	var outline Outline
	if err := json.Unmarshal(respBody, &outline); err != nil {
		return nil, fmt.Errorf("decode outline: %w", err)
	}
	return &outline, nil
}

// do performs a request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, op, method, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if id := requestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", op, err)
	}
	return respBody, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
