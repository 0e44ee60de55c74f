package api

import (
	"fmt"
	"io"
	"mime/multipart"

	"github.com/dgallion1/docpersona/internal/fileset"
	"github.com/dgallion1/docpersona/internal/httpkit"
)

// intakeFile reads one uploaded part and runs it through fileset.Intake.
func intakeFile(fh *multipart.FileHeader, maxBytes int64) (fileset.FileHandle, error) {
	name := httpkit.SanitizeFilename(fh.Filename)
	if fh.Size > maxBytes {
		return fileset.FileHandle{}, &fileset.IntakeError{Name: name, Reason: fmt.Sprintf("file exceeds max size (%d bytes)", maxBytes)}
	}

	f, err := fh.Open()
	if err != nil {
		return fileset.FileHandle{}, fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return fileset.FileHandle{}, fmt.Errorf("read: %w", err)
	}
	return fileset.Intake(name, data, maxBytes)
}
