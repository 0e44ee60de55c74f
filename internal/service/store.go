package service

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dgallion1/docpersona/internal/analysis"
	"github.com/dgallion1/docpersona/internal/httpkit"
	"github.com/dgallion1/docpersona/internal/pdfdoc"
)

// ErrNotFound is returned for a document that was never uploaded.
var ErrNotFound = errors.New("document not found")

// Store keeps uploaded PDFs in a directory and caches their parsed text.
type Store struct {
	dir string

	mu     sync.Mutex
	parsed map[string]cached
}

type cached struct {
	size int64
	doc  *pdfdoc.Document
}

// NewStore creates dir if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir, parsed: make(map[string]cached)}, nil
}

// Save writes data under the sanitized name and returns that name.
// An existing file with the same name is replaced.
func (s *Store) Save(name string, data []byte) (string, error) {
	name = httpkit.SanitizeFilename(name)
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return "", fmt.Errorf("store %s: %w", name, err)
	}

	s.mu.Lock()
	delete(s.parsed, name)
	s.mu.Unlock()
	return name, nil
}

// Document returns the parsed document stored under name.
func (s *Store) Document(name string) (*pdfdoc.Document, error) {
	name = httpkit.SanitizeFilename(name)
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	s.mu.Lock()
	c, ok := s.parsed[name]
	s.mu.Unlock()
	if ok && c.size == int64(len(data)) {
		return c.doc, nil
	}

	doc, err := pdfdoc.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	s.mu.Lock()
	s.parsed[name] = cached{size: int64(len(data)), doc: doc}
	s.mu.Unlock()
	return doc, nil
}

// List returns every stored PDF sorted by name.
func (s *Store) List() ([]analysis.LibraryDocument, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list data dir: %w", err)
	}
	docs := []analysis.LibraryDocument{}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		docs = append(docs, analysis.LibraryDocument{Filename: e.Name(), Size: info.Size()})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Filename < docs[j].Filename })
	return docs, nil
}
