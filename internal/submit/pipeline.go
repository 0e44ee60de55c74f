package submit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dgallion1/docpersona/internal/analysis"
	"github.com/dgallion1/docpersona/internal/fileset"
)

// Phase names one network step of a submission.
type Phase string

const (
	PhaseUpload  Phase = "upload"
	PhaseAnalyze Phase = "analyze"
)

// PhaseFunc is called when a phase is about to start.
type PhaseFunc func(Phase)

// Transport performs the two service calls. *analysis.Client satisfies it.
type Transport interface {
	UploadFiles(ctx context.Context, files []fileset.FileHandle, persona, job string) error
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error)
}

// Config holds the per-deployment constants and phase deadlines.
type Config struct {
	ChallengeID    string
	TestCaseName   string
	UploadTimeout  time.Duration
	AnalyzeTimeout time.Duration
	StatsWindow    time.Duration
}

// Submission is one attempt: a snapshot of the file set plus the text inputs.
type Submission struct {
	RunID       string
	Files       []fileset.FileHandle
	PersonaRole string
	JobTask     string
}

// Pipeline runs upload then analyze, and never returns anything but a
// *SubmissionError on failure.
type Pipeline struct {
	transport Transport
	cfg       Config
	log       *slog.Logger

	uploadStats  *PhaseStats
	analyzeStats *PhaseStats
}

func NewPipeline(transport Transport, cfg Config, log *slog.Logger) *Pipeline {
	return &Pipeline{
		transport:    transport,
		cfg:          cfg,
		log:          log,
		uploadStats:  NewPhaseStats(cfg.StatsWindow),
		analyzeStats: NewPhaseStats(cfg.StatsWindow),
	}
}

// BuildRequest derives the analyze request from a submission. Titles default
// to the filename and documents keep the file set order.
func BuildRequest(sub Submission, cfg Config) analysis.Request {
	docs := make([]analysis.Document, len(sub.Files))
	for i, f := range sub.Files {
		docs[i] = analysis.Document{Filename: f.Name, Title: f.Name}
	}
	return analysis.Request{
		ChallengeInfo: analysis.ChallengeInfo{
			ChallengeID:  cfg.ChallengeID,
			TestCaseName: cfg.TestCaseName,
		},
		Documents:   docs,
		Persona:     analysis.Persona{Role: sub.PersonaRole},
		JobToBeDone: analysis.JobToBeDone{Task: sub.JobTask},
	}
}

// Submit uploads the files and, only if that succeeded, requests the analysis.
func (p *Pipeline) Submit(ctx context.Context, sub Submission, onPhase PhaseFunc) (*analysis.Result, error) {
	log := p.log.With("run_id", sub.RunID, "files", len(sub.Files))
	if sub.RunID != "" {
		ctx = analysis.WithRequestID(ctx, sub.RunID)
	}
	if onPhase == nil {
		onPhase = func(Phase) {}
	}

	// Phase 1: Upload
	onPhase(PhaseUpload)
	start := time.Now()
	err := p.upload(ctx, sub)
	p.uploadStats.Record(time.Since(start), err != nil)
	if err != nil {
		log.Error("upload failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return nil, classify(UploadFailed, err)
	}
	log.Info("upload complete", "duration_ms", time.Since(start).Milliseconds())

	// Phase 2: Analyze
	onPhase(PhaseAnalyze)
	start = time.Now()
	req := BuildRequest(sub, p.cfg)
	res, err := p.analyze(ctx, req)
	p.analyzeStats.Record(time.Since(start), err != nil)
	if err != nil {
		log.Error("analyze failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return nil, classify(AnalyzeFailed, err)
	}

	if echoed := len(res.Metadata.InputDocuments); echoed != len(req.Documents) {
		log.Warn("service echoed a different document count", "submitted", len(req.Documents), "echoed", echoed)
	}
	log.Info("analyze complete",
		"duration_ms", time.Since(start).Milliseconds(),
		"sections", len(res.ExtractedSections),
		"subsections", len(res.SubsectionAnalysis),
	)
	return res, nil
}

func (p *Pipeline) upload(ctx context.Context, sub Submission) error {
	if p.cfg.UploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.UploadTimeout)
		defer cancel()
	}
	return p.transport.UploadFiles(ctx, sub.Files, sub.PersonaRole, sub.JobTask)
}

func (p *Pipeline) analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error) {
	if p.cfg.AnalyzeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.AnalyzeTimeout)
		defer cancel()
	}
	return p.transport.Analyze(ctx, req)
}

// classify maps a transport error onto the phase's failure kind.
func classify(kind Kind, err error) *SubmissionError {
	if kind == AnalyzeFailed && errors.Is(err, analysis.ErrMalformedResponse) {
		return &SubmissionError{Kind: MalformedResponse, Cause: err}
	}
	var statusErr *analysis.StatusError
	if errors.As(err, &statusErr) {
		return &SubmissionError{Kind: kind, Status: statusErr.StatusCode, Cause: err}
	}
	return &SubmissionError{Kind: kind, Cause: err}
}

// Stats returns latency aggregates keyed by phase.
func (p *Pipeline) Stats() map[Phase]StatsSnapshot {
	return map[Phase]StatsSnapshot{
		PhaseUpload:  p.uploadStats.Snapshot(),
		PhaseAnalyze: p.analyzeStats.Snapshot(),
	}
}
