package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/docpersona/internal/analysis"
	"github.com/dgallion1/docpersona/internal/fileset"
	"github.com/dgallion1/docpersona/internal/submit"
)

// ErrAlreadyRunning is returned by Run and Reset while a run is in flight.
var ErrAlreadyRunning = &WorkflowError{Kind: "already_running"}

// WorkflowError is a rejected controller command.
type WorkflowError struct {
	Kind string
}

func (e *WorkflowError) Error() string {
	if e.Kind == ErrAlreadyRunning.Kind {
		return "an analysis is already running"
	}
	return e.Kind
}

func (e *WorkflowError) Is(target error) bool {
	t, ok := target.(*WorkflowError)
	return ok && t.Kind == e.Kind
}

// Submitter runs the network phases of one submission. *submit.Pipeline satisfies it.
type Submitter interface {
	Submit(ctx context.Context, sub submit.Submission, onPhase submit.PhaseFunc) (*analysis.Result, error)
}

// Controller owns the file set and the workflow state and sequences
// validation and submission. It has no rendering dependency; front ends
// observe it through Subscribe.
type Controller struct {
	mu    sync.Mutex
	files *fileset.FileSet
	state State
	subs  []subscriber
	next  int

	// notifyMu keeps deliveries in transition order without holding mu.
	notifyMu sync.Mutex

	submitter Submitter
	log       *slog.Logger
	newRunID  func() string
}

func NewController(submitter Submitter, log *slog.Logger) *Controller {
	return &Controller{
		files:     fileset.New(),
		state:     State{Status: StatusIdle, UpdatedAt: time.Now()},
		submitter: submitter,
		log:       log,
		newRunID:  func() string { return uuid.NewString() },
	}
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn for every subsequent transition and returns a
// function that removes it. Deliveries are synchronous and in order; fn may
// read the controller but must not call Run or Reset.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.next
	c.next++
	c.subs = append(c.subs, subscriber{id: id, fn: fn})
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, sub := range c.subs {
			if sub.id == id {
				c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

type subscriber struct {
	id int
	fn func(State)
}

// AddFile adds h to the file set; false means an identical file is already there.
func (c *Controller) AddFile(h fileset.FileHandle) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.files.Add(h)
}

// RemoveFile drops the file at index i.
func (c *Controller) RemoveFile(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.files.RemoveAt(i)
}

// Files returns the current file set contents in order.
func (c *Controller) Files() []fileset.FileHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.files.Items()
}

// Reset returns to Idle and clears the file set.
func (c *Controller) Reset() error {
	c.mu.Lock()
	if c.state.InFlight() {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	c.files.Clear()
	c.mu.Unlock()

	c.transition(State{Status: StatusIdle})
	return nil
}

// Run validates the current file set and inputs and, if they pass, submits
// them. It blocks until the run reaches Success or Failed and returns that
// state. The only error is ErrAlreadyRunning, in which case the in-flight
// run is left untouched.
func (c *Controller) Run(ctx context.Context, personaRole, jobTask string) (State, error) {
	st, proceed, err := c.begin(personaRole, jobTask)
	if err != nil || proceed == nil {
		return st, err
	}
	return proceed(ctx), nil
}

// Start is Run without the wait: validation and the AlreadyRunning guard
// happen before it returns, the network phases continue on a new goroutine
// under ctx. The returned state is Validating, or Failed when validation
// rejected the inputs.
func (c *Controller) Start(ctx context.Context, personaRole, jobTask string) (State, error) {
	st, proceed, err := c.begin(personaRole, jobTask)
	if err != nil || proceed == nil {
		return st, err
	}
	go proceed(ctx)
	return st, nil
}

// begin claims the controller for a new run. It returns a nil proceed
// function when there is nothing left to do.
func (c *Controller) begin(personaRole, jobTask string) (State, func(context.Context) State, error) {
	c.mu.Lock()
	if c.state.InFlight() {
		st := c.state
		c.mu.Unlock()
		return st, nil, ErrAlreadyRunning
	}
	runID := c.newRunID()
	files := c.files.Items()
	log := c.log.With("run_id", runID)

	// Validation happens under the lock so no edit can interleave with it.
	if err := Validate(c.files, personaRole, jobTask); err != nil {
		c.setLocked(failure(runID, err))
		failed, subs := c.state, c.subscribersLocked()
		c.mu.Unlock()
		c.deliver(subs, failed)
		log.Info("validation failed", "error", err, "files", len(files))
		return failed, nil, nil
	}
	c.setLocked(State{Status: StatusValidating, RunID: runID})
	validating, subs := c.state, c.subscribersLocked()
	c.mu.Unlock()
	c.deliver(subs, validating)

	sub := submit.Submission{
		RunID:       runID,
		Files:       files,
		PersonaRole: personaRole,
		JobTask:     jobTask,
	}
	return validating, func(ctx context.Context) State { return c.execute(ctx, sub, log) }, nil
}

func (c *Controller) execute(ctx context.Context, sub submit.Submission, log *slog.Logger) State {
	c.transition(State{Status: StatusUploading, RunID: sub.RunID})
	log.Info("submitting", "files", len(sub.Files))

	res, err := c.submitter.Submit(ctx, sub, func(p submit.Phase) {
		if p == submit.PhaseAnalyze {
			c.transition(State{Status: StatusAnalyzing, RunID: sub.RunID})
		}
	})
	if err != nil {
		log.Warn("run failed", "error", err)
		return c.transition(failure(sub.RunID, err))
	}

	docs := len(res.Metadata.InputDocuments)
	log.Info("analysis complete", "documents", docs, "sections", len(res.ExtractedSections))
	return c.transition(State{
		Status:  StatusSuccess,
		RunID:   sub.RunID,
		Result:  res,
		Message: fmt.Sprintf("Analysis complete: %d documents processed", docs),
	})
}

// failure builds the Failed state carrying the kind and message of err.
func failure(runID string, err error) State {
	st := State{Status: StatusFailed, RunID: runID, ErrorKind: InternalError, Message: err.Error()}

	var valErr *ValidationError
	var subErr *submit.SubmissionError
	switch {
	case errors.As(err, &valErr):
		st.ErrorKind = string(valErr.Kind)
	case errors.As(err, &subErr):
		st.ErrorKind = string(subErr.Kind)
	}
	if st.Message == "" {
		st.Message = "analysis failed"
	}
	return st
}

// transition replaces the state and notifies subscribers outside the lock.
func (c *Controller) transition(st State) State {
	c.mu.Lock()
	c.setLocked(st)
	st = c.state
	subs := c.subscribersLocked()
	c.mu.Unlock()

	c.deliver(subs, st)
	return st
}

func (c *Controller) setLocked(st State) {
	st.UpdatedAt = time.Now()
	c.state = st
}

func (c *Controller) subscribersLocked() []func(State) {
	out := make([]func(State), len(c.subs))
	for i, sub := range c.subs {
		out[i] = sub.fn
	}
	return out
}

func (c *Controller) deliver(subs []func(State), st State) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	for _, fn := range subs {
		fn(st)
	}
}
