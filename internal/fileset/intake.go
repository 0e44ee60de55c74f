package fileset

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docpersona/internal/pdfdoc"
)

// IntakeError explains why a file was not admitted to a FileSet.
type IntakeError struct {
	Name   string
	Reason string
	Err    error
}

func (e *IntakeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Reason)
}

func (e *IntakeError) Unwrap() error {
	return e.Err
}

// Intake admits a file only if it has a .pdf name, fits in maxBytes and
// opens as a PDF with at least one page.
func Intake(name string, data []byte, maxBytes int64) (FileHandle, error) {
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return FileHandle{}, &IntakeError{Name: name, Reason: "only PDF files are accepted"}
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return FileHandle{}, &IntakeError{Name: name, Reason: fmt.Sprintf("file exceeds max size (%d bytes)", maxBytes)}
	}
	if _, err := pdfdoc.Inspect(data); err != nil {
		return FileHandle{}, &IntakeError{Name: name, Reason: err.Error(), Err: err}
	}
	return NewHandle(name, data), nil
}
