package workflow

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docpersona/internal/fileset"
)

// Batch size bounds for persona analysis.
const (
	MinFiles = 3
	MaxFiles = 10
)

// ValidationKind names the rule a submission broke.
type ValidationKind string

const (
	MissingPersona ValidationKind = "missing_persona"
	MissingJob     ValidationKind = "missing_job"
	TooFewFiles    ValidationKind = "too_few_files"
	TooManyFiles   ValidationKind = "too_many_files"
)

// ValidationError reports the first failed rule. Count is the file count for
// the two size rules.
type ValidationError struct {
	Kind  ValidationKind
	Count int
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case MissingPersona:
		return "please enter a persona role"
	case MissingJob:
		return "please enter the job to be done"
	case TooFewFiles:
		return fmt.Sprintf("please select at least %d PDF files (currently %d)", MinFiles, e.Count)
	case TooManyFiles:
		return fmt.Sprintf("please select at most %d PDF files (currently %d)", MaxFiles, e.Count)
	}
	return string(e.Kind)
}

// Is matches any *ValidationError of the same Kind.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}

// Validate checks the text inputs and the batch size, in that order, and
// stops at the first failure.
func Validate(files *fileset.FileSet, personaRole, jobTask string) error {
	if strings.TrimSpace(personaRole) == "" {
		return &ValidationError{Kind: MissingPersona}
	}
	if strings.TrimSpace(jobTask) == "" {
		return &ValidationError{Kind: MissingJob}
	}
	fileCount := 0
	if files != nil {
		fileCount = files.Len()
	}
	if fileCount < MinFiles {
		return &ValidationError{Kind: TooFewFiles, Count: fileCount}
	}
	if fileCount > MaxFiles {
		return &ValidationError{Kind: TooManyFiles, Count: fileCount}
	}
	return nil
}
