package submit

import (
	"fmt"
)

// Kind classifies a submission failure.
type Kind string

const (
	UploadFailed      Kind = "upload_failed"
	AnalyzeFailed     Kind = "analyze_failed"
	MalformedResponse Kind = "malformed_response"
)

// SubmissionError is the only error type Submit returns.
// Status is the HTTP status when the service answered, 0 on transport errors.
type SubmissionError struct {
	Kind   Kind
	Status int
	Cause  error
}

func (e *SubmissionError) Error() string {
	var what string
	switch e.Kind {
	case UploadFailed:
		what = "upload failed"
	case AnalyzeFailed:
		what = "analysis failed"
	case MalformedResponse:
		what = "analysis service returned an unreadable response"
	default:
		what = string(e.Kind)
	}
	switch {
	case e.Status != 0:
		return fmt.Sprintf("%s: service responded with status %d", what, e.Status)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", what, e.Cause)
	}
	return what
}

func (e *SubmissionError) Unwrap() error {
	return e.Cause
}

// Is matches any *SubmissionError of the same Kind, so callers can write
// errors.Is(err, &SubmissionError{Kind: UploadFailed}).
func (e *SubmissionError) Is(target error) bool {
	t, ok := target.(*SubmissionError)
	return ok && t.Kind == e.Kind
}
