package ledger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/zombor/receipt-ledger/internal/extraction"
)

// State is an ingestion workflow state.
type State string

const (
	// StateIdle means the workflow is awaiting a file.
	StateIdle State = "idle"
	// StateAnalyzing means a normalize-and-extract pipeline is running.
	StateAnalyzing State = "analyzing"
	// StateReviewPending means an extraction succeeded and its editable
	// staging copy awaits user review; nothing is in the ledger yet.
	StateReviewPending State = "review_pending"
	// StateFailed means the last scan failed; a new scan may be started.
	StateFailed State = "failed"
)

// Workflow orchestrates one ingestion pipeline at a time:
// normalize -> extract -> (user review) -> append.
//
// It is single-flight by construction: a scan started while another is
// analyzing is rejected, not queued. Each attempt carries a sequence
// number; only the attempt matching the current sequence applies its
// outcome, so a scan abandoned via Discard resolves without clobbering
// newer state.
type Workflow struct {
	store       Store
	extractor   extraction.Extractor
	scanTimeout time.Duration

	mu      sync.Mutex
	seq     uint64
	state   State
	staging *Record
	failure string
}

// NewWorkflow creates a Workflow. scanTimeout bounds the provider call of a
// single scan.
func NewWorkflow(store Store, extractor extraction.Extractor, scanTimeout time.Duration) *Workflow {
	return &Workflow{
		store:       store,
		extractor:   extractor,
		scanTimeout: scanTimeout,
		state:       StateIdle,
	}
}

// Scan runs the pipeline for one file and returns the staging record for
// review. The record is NOT committed to the ledger; Commit does that after
// the user has had a chance to edit it. Starting a scan from ReviewPending
// or Failed discards the previous staging copy.
func (w *Workflow) Scan(data []byte, mimeType string) (*Record, error) {
	attempt, apiKey, modelID, err := w.begin()
	if err != nil {
		return nil, err
	}

	fields, err := w.run(data, mimeType, apiKey, modelID)
	return w.finish(attempt, fields, err)
}

// begin transitions to Analyzing and snapshots the settings the attempt
// will use.
func (w *Workflow) begin() (uint64, string, string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StateAnalyzing {
		return 0, "", "", ErrScanInFlight
	}

	settings, err := w.store.Settings()
	if err != nil {
		return 0, "", "", err
	}
	if settings.APIKey == "" {
		w.state = StateFailed
		w.failure = ErrNoAPIKey.Error()
		w.staging = nil
		return 0, "", "", ErrNoAPIKey
	}

	w.seq++
	w.state = StateAnalyzing
	w.staging = nil
	w.failure = ""
	return w.seq, settings.APIKey, settings.ModelID, nil
}

// run executes the pipeline stages sequentially, outside the lock.
func (w *Workflow) run(data []byte, mimeType, apiKey, modelID string) (*extraction.ReceiptFields, error) {
	doc, err := extraction.Normalize(data, mimeType)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.scanTimeout)
	defer cancel()

	return w.extractor.Extract(ctx, apiKey, doc, modelID)
}

// finish applies the attempt's outcome, unless the workflow moved on.
func (w *Workflow) finish(attempt uint64, fields *extraction.ReceiptFields, scanErr error) (*Record, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.seq != attempt {
		slog.Info("Discarding superseded scan result", "attempt", attempt)
		return nil, ErrScanSuperseded
	}

	if scanErr != nil {
		w.state = StateFailed
		w.failure = scanErr.Error()
		return nil, scanErr
	}

	w.staging = &Record{
		Date:        fields.Date,
		Amount:      fields.Amount,
		Payee:       fields.Payee,
		Description: fields.Description,
	}
	w.state = StateReviewPending
	staged := *w.staging
	return &staged, nil
}

// Commit appends the reviewed record to the ledger and returns to Idle. The
// caller passes the record back with any edits applied; identity is
// assigned by the store, so edits to every field are free.
func (w *Workflow) Commit(rec Record) (*Record, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateReviewPending {
		return nil, ErrNoPendingReview
	}

	stored, err := w.store.Append(rec)
	if err != nil {
		// Stay in ReviewPending so the user can retry the commit.
		return nil, err
	}

	w.state = StateIdle
	w.staging = nil
	w.failure = ""
	return stored, nil
}

// Discard abandons the pending review or an in-flight scan and returns to
// Idle. An in-flight attempt that later resolves finds its sequence number
// stale and is suppressed.
func (w *Workflow) Discard() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.seq++
	w.state = StateIdle
	w.staging = nil
	w.failure = ""
}

// Status reports the current state, the staging record if one is pending
// review, and the failure message if the last scan failed.
func (w *Workflow) Status() (State, *Record, string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var staging *Record
	if w.staging != nil {
		copied := *w.staging
		staging = &copied
	}
	return w.state, staging, w.failure
}
