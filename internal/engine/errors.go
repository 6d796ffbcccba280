package engine

import (
	"errors"
	"fmt"

	"stocktake/internal"
)

var (
	// ErrNotFound means no local inventory record matched the term.
	ErrNotFound = errors.New("no inventory record matches")
	// ErrAmbiguous means a name search matched more than one record and the
	// caller has to pick. Carried by AmbiguousError.
	ErrAmbiguous = errors.New("ambiguous search term")
	// ErrRemoteUnavailable covers every failed reference lookup: transport
	// error, non-2xx status, or a payload that cannot be decoded.
	ErrRemoteUnavailable = errors.New("remote stock source unavailable")
	// ErrSubmissionFailed means the adjustment POST was rejected or never
	// arrived. Local state is untouched and the decision stays retryable.
	ErrSubmissionFailed = errors.New("adjustment submission failed")
	// ErrNothingToConfirm means Confirm was called for a matching count.
	ErrNothingToConfirm = errors.New("counted quantity matches, nothing to confirm")
	// ErrNoExternalID means the record predates the bookkeeping integration
	// and has nothing to reconcile against remotely.
	ErrNoExternalID = errors.New("record has no external id")
)

// AmbiguousError carries the candidate records of a name search that
// matched more than one row.
type AmbiguousError struct {
	Term       string
	Candidates []internal.InventoryRecord
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("term %q matches %d records", e.Term, len(e.Candidates))
}

func (e *AmbiguousError) Unwrap() error { return ErrAmbiguous }
