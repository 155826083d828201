package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"
)

// State is a workflow stage.
type State int

const (
	StateInitializing State = iota
	StateScanning
	StateSelecting
	StateReplacing
	StateFinished
	StateError
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateScanning:
		return "scanning"
	case StateSelecting:
		return "selecting"
	case StateReplacing:
		return "replacing"
	case StateFinished:
		return "finished"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateFinished || s == StateError
}

var transitions = map[State][]State{
	StateInitializing: {StateScanning, StateError},
	StateScanning:     {StateSelecting, StateError},
	StateSelecting:    {StateReplacing, StateError},
	StateReplacing:    {StateFinished},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// DocumentOutcome is the result of rewriting one document.
type DocumentOutcome struct {
	DocumentID string
	Edits      int
	Err        error
}

// Outcome summarizes a finished run. Partial success is normal: each
// document carries its own error.
type Outcome struct {
	RunID     string
	Edits     int // edits derived across all documents
	Documents []DocumentOutcome
}

// Succeeded returns the ids of documents written successfully.
func (o *Outcome) Succeeded() []string {
	var out []string
	for _, d := range o.Documents {
		if d.Err == nil {
			out = append(out, d.DocumentID)
		}
	}
	return out
}

// Failed returns the documents whose edits were not written.
func (o *Outcome) Failed() []DocumentOutcome {
	var out []DocumentOutcome
	for _, d := range o.Documents {
		if d.Err != nil {
			out = append(out, d)
		}
	}
	return out
}

// AppliedEdits counts edits of successfully written documents only.
func (o *Outcome) AppliedEdits() int {
	n := 0
	for _, d := range o.Documents {
		if d.Err == nil {
			n += d.Edits
		}
	}
	return n
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithRecorder records the finished run.
func WithRecorder(r Recorder) Option {
	return func(w *Workflow) { w.recorder = r }
}

// WithWriteConcurrency bounds concurrent document writes (n <= 0: unbounded).
func WithWriteConcurrency(n int) Option {
	return func(w *Workflow) { w.writeLimit = n }
}

// WithLogger replaces the default logger.
func WithLogger(l commonlog.Logger) Option {
	return func(w *Workflow) { w.log = l }
}

// Workflow drives one scan → select → replace run. A new run needs a new
// Workflow; Finished and Error are terminal.
type Workflow struct {
	store      Storage
	client     *MatcherClient
	gen        LinkGenerator
	recorder   Recorder
	writeLimit int
	log        commonlog.Logger
	runID      string

	mu        sync.Mutex
	state     State
	started   bool
	mode      string
	startedAt time.Time
	changed   chan struct{}
	progress  Progress
	handles   map[string]DocumentHandle
	contents  map[string]string // content as loaded, by document id
	results   []*DocumentResult
	ops       map[string]*ChangeOperation
	outcome   *Outcome
	err       error
	notices   []string
}

// NewWorkflow returns a workflow in the Initializing state.
func NewWorkflow(store Storage, client *MatcherClient, gen LinkGenerator, opts ...Option) *Workflow {
	w := &Workflow{
		store:   store,
		client:  client,
		gen:     gen,
		log:     commonlog.GetLogger("mdlinker.workflow"),
		runID:   uuid.NewString(),
		state:   StateInitializing,
		changed: make(chan struct{}),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// RunID identifies this run in the history database.
func (w *Workflow) RunID() string { return w.runID }

// State returns the current stage.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Progress returns the latest scan progress snapshot.
func (w *Workflow) Progress() Progress {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.progress
}

// Err returns the error that moved the workflow to Error.
func (w *Workflow) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Notices returns user-visible notices that did not change the state.
func (w *Workflow) Notices() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.notices...)
}

// Results returns the match results for selection. The options are live:
// toggling them changes what Commit will write. Do not toggle concurrently
// with Commit.
func (w *Workflow) Results() ([]*DocumentResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateSelecting {
		return nil, fmt.Errorf("results in state %s: %w", w.state, ErrInvalidTransition)
	}
	return w.results, nil
}

// Operations returns the change operations built by Commit, keyed by document id.
func (w *Workflow) Operations() map[string]*ChangeOperation {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ops
}

// Outcome returns the result of the run once Finished, else nil.
func (w *Workflow) Outcome() *Outcome {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.outcome
}

// Changed returns a channel closed at the next state or progress change.
func (w *Workflow) Changed() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.changed
}

// Wait blocks until the workflow is in one of states, or a terminal state.
func (w *Workflow) Wait(ctx context.Context, states ...State) (State, error) {
	for {
		w.mu.Lock()
		cur, ch := w.state, w.changed
		w.mu.Unlock()
		if cur.Terminal() {
			return cur, nil
		}
		for _, s := range states {
			if cur == s {
				return cur, nil
			}
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return cur, ctx.Err()
		}
	}
}

// notifyLocked wakes up everyone waiting on Changed. Caller holds mu.
func (w *Workflow) notifyLocked() {
	close(w.changed)
	w.changed = make(chan struct{})
}

func (w *Workflow) transitionLocked(to State) error {
	if !canTransition(w.state, to) {
		return fmt.Errorf("%s -> %s: %w", w.state, to, ErrInvalidTransition)
	}
	w.log.Infof("run %s: %s -> %s", w.runID, w.state, to)
	w.state = to
	w.notifyLocked()
	return nil
}

func (w *Workflow) fail(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if terr := w.transitionLocked(StateError); terr != nil {
		w.log.Errorf("run %s: %v (while handling %v)", w.runID, terr, err)
		return
	}
	w.err = err
	w.log.Errorf("run %s: %v", w.runID, err)
}

// Start loads the vault and begins a corpus scan. It returns once the scan
// is running; ctx bounds the scan itself.
func (w *Workflow) Start(ctx context.Context) error {
	return w.start(ctx, "corpus", "")
}

// StartSingle scans only focusID against the corpus. If focusID is not an
// eligible document a *Notice is returned and the state does not change.
func (w *Workflow) StartSingle(ctx context.Context, focusID string) error {
	if focusID == "" {
		return w.notice("no focus document given for single-document scan")
	}
	return w.start(ctx, "single", NormalizePath(focusID))
}

func (w *Workflow) notice(msg string) error {
	w.mu.Lock()
	w.notices = append(w.notices, msg)
	w.mu.Unlock()
	w.log.Notice(msg)
	return &Notice{Err: ErrNoFocusDocument, Message: msg}
}

func (w *Workflow) start(ctx context.Context, mode, focusID string) error {
	w.mu.Lock()
	if w.state != StateInitializing || w.started {
		st := w.state
		w.mu.Unlock()
		return fmt.Errorf("start in state %s: %w", st, ErrInvalidTransition)
	}
	w.started = true
	w.mu.Unlock()

	docs, err := w.load(ctx)
	if err != nil {
		w.fail(fmt.Errorf("load documents: %w", err))
		return err
	}

	var focus *Document
	total := 1
	if mode == "single" {
		for i := range docs {
			if docs[i].ID == focusID {
				focus = &docs[i]
				break
			}
		}
		if focus == nil {
			w.mu.Lock()
			w.started = false
			w.mu.Unlock()
			return w.notice(fmt.Sprintf("%s is not an eligible document for single-document scan", focusID))
		}
	} else {
		total, err = w.store.CountMatchable(ctx)
		if err != nil {
			w.fail(fmt.Errorf("count documents: %w", err))
			return err
		}
	}

	w.mu.Lock()
	w.mode = mode
	w.startedAt = time.Now()
	w.progress = NewProgress(total)
	err = w.transitionLocked(StateScanning)
	w.mu.Unlock()
	if err != nil {
		return err
	}

	var pending *Pending
	if focus != nil {
		pending = w.client.ScanSingle(ctx, *focus, docs, w.onProgress)
	} else {
		pending = w.client.ScanCorpus(ctx, docs, w.onProgress)
	}
	go w.awaitScan(pending)
	return nil
}

func (w *Workflow) load(ctx context.Context) ([]Document, error) {
	handles, err := w.store.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]DocumentHandle, len(handles))
	contents := make(map[string]string, len(handles))
	docs := make([]Document, 0, len(handles))
	for _, h := range handles {
		content, err := w.store.Read(ctx, h)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", h.ID, err)
		}
		doc := NewDocument(h.ID, content)
		if h.Title != "" {
			doc.Title = h.Title
		}
		docs = append(docs, doc)
		byID[h.ID] = h
		contents[h.ID] = content
	}
	w.mu.Lock()
	w.handles = byID
	w.contents = contents
	w.mu.Unlock()
	return docs, nil
}

func (w *Workflow) onProgress(ev ScanEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateScanning {
		return
	}
	w.progress = w.progress.Advance(ev)
	w.notifyLocked()
}

func (w *Workflow) awaitScan(p *Pending) {
	<-p.Done()
	raw, err := p.Wait(context.Background())
	if err != nil {
		w.fail(err)
		return
	}
	results, err := DecodeResults(raw)
	if err != nil {
		w.fail(&MatcherError{Mode: w.mode, Err: err})
		return
	}
	if err := w.checkContents(results); err != nil {
		w.fail(&MatcherError{Mode: w.mode, Err: err})
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.results = results
	if err := w.transitionLocked(StateSelecting); err != nil {
		w.log.Errorf("run %s: %v", w.runID, err)
	}
}

// checkContents rejects results whose document text differs from what was
// loaded; edits are only valid against the exact bytes that get rewritten.
func (w *Workflow) checkContents(results []*DocumentResult) error {
	w.mu.Lock()
	contents := w.contents
	w.mu.Unlock()
	for _, r := range results {
		loaded, ok := contents[r.Document.ID]
		if !ok {
			return fmt.Errorf("result for unknown document %s", r.Document.ID)
		}
		if r.Document.Content != loaded {
			return fmt.Errorf("%s: result content differs from the scanned document", r.Document.ID)
		}
	}
	return nil
}

// Commit snapshots the current selections into change operations and
// starts writing them. It returns once the writes are running; use Wait
// for the Finished state. ctx must outlive the write batch.
func (w *Workflow) Commit(ctx context.Context) error {
	w.mu.Lock()
	if w.state != StateSelecting {
		st := w.state
		w.mu.Unlock()
		return fmt.Errorf("commit in state %s: %w", st, ErrInvalidTransition)
	}
	ops := BuildChangeSet(w.results, w.gen)
	w.ops = ops
	if err := w.transitionLocked(StateReplacing); err != nil {
		w.mu.Unlock()
		return err
	}
	w.mu.Unlock()

	go w.replace(ctx, ops)
	return nil
}

// replace applies and writes every operation independently and joins them
// all-settled; one failure never cancels or hides the others.
func (w *Workflow) replace(ctx context.Context, ops map[string]*ChangeOperation) {
	ids := make([]string, 0, len(ops))
	for id := range ops {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	w.mu.Lock()
	handles := w.handles
	w.mu.Unlock()

	outcomes := make([]DocumentOutcome, len(ids))
	records := make([]ChangeRecord, len(ids))

	var g errgroup.Group
	if w.writeLimit > 0 {
		g.SetLimit(w.writeLimit)
	}
	for i, id := range ids {
		i, id := i, id
		op := ops[id]
		g.Go(func() error {
			outcomes[i] = DocumentOutcome{DocumentID: id, Edits: len(op.Edits)}
			applied, err := ApplyChange(*op)
			if err != nil {
				outcomes[i].Err = err
				records[i] = ChangeRecord{Operation: *op, Err: err}
				w.log.Errorf("run %s: %v", w.runID, err)
				return nil
			}
			*op = applied

			h, ok := handles[id]
			if !ok {
				h = DocumentHandle{ID: id, Title: basename(id)}
			}
			if err := w.store.Write(ctx, h, applied.Content); err != nil {
				outcomes[i].Err = &WriteError{DocumentID: id, Err: err}
				w.log.Errorf("run %s: %v", w.runID, outcomes[i].Err)
			}
			records[i] = ChangeRecord{Operation: applied, Err: outcomes[i].Err}
			return nil
		})
	}
	_ = g.Wait()

	outcome := &Outcome{RunID: w.runID, Edits: EditCount(ops), Documents: outcomes}

	if w.recorder != nil {
		w.mu.Lock()
		rec := RunRecord{ID: w.runID, Mode: w.mode, StartedAt: w.startedAt, FinishedAt: time.Now(), Changes: records}
		w.mu.Unlock()
		// Writes already happened; a lost history row must not turn the run into a failure.
		if err := w.recorder.RecordRun(context.WithoutCancel(ctx), rec); err != nil {
			w.log.Errorf("run %s: record history: %v", w.runID, err)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.outcome = outcome
	if err := w.transitionLocked(StateFinished); err != nil {
		w.log.Errorf("run %s: %v", w.runID, err)
	}
	w.log.Infof("run %s: %d of %d edits written, %d documents failed",
		w.runID, outcome.AppliedEdits(), outcome.Edits, len(outcome.Failed()))
}
