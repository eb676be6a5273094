package ledger

import (
	"errors"
	"fmt"
)

// ErrRecordNotFound is returned when an id matches no ledger record.
var ErrRecordNotFound = errors.New("record not found")

// ErrScanInFlight is returned when a scan is requested while another one is
// still analyzing. Ingestion is single-flight, not a queue.
var ErrScanInFlight = errors.New("a scan is already in progress")

// ErrNoAPIKey is returned when a provider operation is requested before an
// API key has been configured.
var ErrNoAPIKey = errors.New("no API key configured")

// ErrScanSuperseded is returned to a scan whose workflow was discarded
// while it was still in flight; its result is suppressed, not applied.
var ErrScanSuperseded = errors.New("scan superseded")

// ErrNoPendingReview is returned when a commit is requested with nothing in
// review.
var ErrNoPendingReview = errors.New("no extraction is pending review")

// PersistenceError reports a failure writing the ledger snapshot or the
// settings. The store never swallows one: a mutation either persisted fully
// or returns this.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persisting %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
