package workflow

import (
	"time"

	"github.com/dgallion1/docpersona/internal/analysis"
)

// Status is the tag of the workflow state. Exactly one holds at a time.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusValidating Status = "validating"
	StatusUploading  Status = "uploading"
	StatusAnalyzing  Status = "analyzing"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
)

// InternalError is the ErrorKind used for a failure that matched no known kind.
const InternalError = "internal"

// State is an immutable snapshot handed to subscribers and front ends.
// Result is set only for StatusSuccess; ErrorKind only for StatusFailed.
type State struct {
	Status    Status           `json:"status"`
	RunID     string           `json:"run_id,omitempty"`
	Result    *analysis.Result `json:"result,omitempty"`
	ErrorKind string           `json:"error_kind,omitempty"`
	Message   string           `json:"message,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// InFlight reports whether a run is between validation and its terminal state.
func (s State) InFlight() bool {
	switch s.Status {
	case StatusValidating, StatusUploading, StatusAnalyzing:
		return true
	}
	return false
}

// Terminal reports whether the last run has finished.
func (s State) Terminal() bool {
	return s.Status == StatusSuccess || s.Status == StatusFailed
}
