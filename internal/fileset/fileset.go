package fileset

import "fmt"

// FileHandle is one user-selected file that has not been transmitted yet.
type FileHandle struct {
	Name string
	Size int64
	Data []byte
}

// NewHandle builds a handle whose Size is taken from the payload.
func NewHandle(name string, data []byte) FileHandle {
	return FileHandle{Name: name, Size: int64(len(data)), Data: data}
}

// Identity is the deduplication key. Content is not compared, so two
// different files sharing a name and size are treated as one.
type Identity struct {
	Name string
	Size int64
}

func (h FileHandle) Identity() Identity {
	return Identity{Name: h.Name, Size: h.Size}
}

// IndexError is returned by RemoveAt for an out-of-range index.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("file index %d out of range (have %d)", e.Index, e.Len)
}

// FileSet is an insertion-ordered collection with no two handles sharing an Identity.
// It is not safe for concurrent use; the workflow controller serializes access.
type FileSet struct {
	items []FileHandle
}

func New() *FileSet {
	return &FileSet{}
}

// Add appends h unless a handle with the same identity is already present.
func (s *FileSet) Add(h FileHandle) bool {
	id := h.Identity()
	for _, existing := range s.items {
		if existing.Identity() == id {
			return false
		}
	}
	s.items = append(s.items, h)
	return true
}

// RemoveAt deletes the handle at index i, keeping the order of the rest.
func (s *FileSet) RemoveAt(i int) error {
	if i < 0 || i >= len(s.items) {
		return &IndexError{Index: i, Len: len(s.items)}
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}

func (s *FileSet) Clear() {
	s.items = nil
}

func (s *FileSet) Len() int {
	return len(s.items)
}

// Items returns a copy of the handles in insertion order.
func (s *FileSet) Items() []FileHandle {
	out := make([]FileHandle, len(s.items))
	copy(out, s.items)
	return out
}

// Names returns the file names in insertion order.
func (s *FileSet) Names() []string {
	names := make([]string, len(s.items))
	for i, h := range s.items {
		names[i] = h.Name
	}
	return names
}
