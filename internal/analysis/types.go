package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ChallengeInfo is passed through to the service for request tracing.
type ChallengeInfo struct {
	ChallengeID  string `json:"challenge_id"`
	TestCaseName string `json:"test_case_name"`
}

// Document names one previously uploaded file.
type Document struct {
	Filename string `json:"filename"`
	Title    string `json:"title"`
}

type Persona struct {
	Role string `json:"role"`
}

type JobToBeDone struct {
	Task string `json:"task"`
}

// Request is the body of POST /api/analyze-persona.
type Request struct {
	ChallengeInfo ChallengeInfo `json:"challenge_info"`
	Documents     []Document    `json:"documents"`
	Persona       Persona       `json:"persona"`
	JobToBeDone   JobToBeDone   `json:"job_to_be_done"`
}

// Metadata echoes the inputs of an analysis.
type Metadata struct {
	InputDocuments      []string `json:"input_documents"`
	Persona             string   `json:"persona,omitempty"`
	JobToBeDone         string   `json:"job_to_be_done,omitempty"`
	ProcessingTimestamp string   `json:"processing_timestamp,omitempty"`
}

// Section is one ranked heading. ImportanceRank is a float because some
// service builds report similarity scores rather than ordinal ranks.
type Section struct {
	Document       string  `json:"document"`
	SectionTitle   string  `json:"section_title"`
	ImportanceRank float64 `json:"importance_rank"`
	PageNumber     int     `json:"page_number"`
}

// Subsection is a refined excerpt tied to a source section.
type Subsection struct {
	Document    string `json:"document"`
	RefinedText string `json:"refined_text"`
	PageNumber  int    `json:"page_number"`
}

// Result is the parsed response of POST /api/analyze-persona.
type Result struct {
	Metadata           Metadata     `json:"metadata"`
	ExtractedSections  []Section    `json:"extracted_sections"`
	SubsectionAnalysis []Subsection `json:"subsection_analysis"`
}

// ErrMalformedResponse marks a response body that does not have the Result shape.
var ErrMalformedResponse = errors.New("malformed analysis response")

// DecodeResult parses an analyze response, requiring the three top-level fields.
func DecodeResult(data []byte) (*Result, error) {
	var wire struct {
		Metadata           *Metadata     `json:"metadata"`
		ExtractedSections  *[]Section    `json:"extracted_sections"`
		SubsectionAnalysis *[]Subsection `json:"subsection_analysis"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	switch {
	case wire.Metadata == nil:
		return nil, fmt.Errorf("%w: missing metadata", ErrMalformedResponse)
	case wire.ExtractedSections == nil:
		return nil, fmt.Errorf("%w: missing extracted_sections", ErrMalformedResponse)
	case wire.SubsectionAnalysis == nil:
		return nil, fmt.Errorf("%w: missing subsection_analysis", ErrMalformedResponse)
	}
	return &Result{
		Metadata:           *wire.Metadata,
		ExtractedSections:  *wire.ExtractedSections,
		SubsectionAnalysis: *wire.SubsectionAnalysis,
	}, nil
}

// Heading is one outline entry of a single document.
type Heading struct {
	Level string `json:"level"`
	Text  string `json:"text"`
	Page  int    `json:"page"`
}

// Outline is the response of the single-document endpoint POST /api/upload.
type Outline struct {
	Filename   string    `json:"filename"`
	Title      string    `json:"title"`
	Outline    []Heading `json:"outline"`
	TotalPages int       `json:"total_pages"`
}

// LibraryDocument is one entry of GET /api/documents.
type LibraryDocument struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}
