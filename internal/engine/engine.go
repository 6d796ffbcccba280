package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"stocktake/internal"
	"stocktake/internal/config"
)

// Mode selects how a scan term is resolved against the store.
type Mode string

const (
	ByBarcode Mode = "barcode"
	ByName    Mode = "name"
)

// Inventory is the slice of the store the engine needs.
type Inventory interface {
	FindByBarcode(code string) (internal.InventoryRecord, bool)
	SearchByName(term string, limit int) []internal.InventoryRecord
	RecordCount(code string, quantity int) error
}

// StockSource is the remote bookkeeping API the engine reconciles against.
type StockSource interface {
	GetItem(ctx context.Context, externalID string) (internal.ItemSnapshot, error)
	SubmitAdjustment(ctx context.Context, adj internal.Adjustment) error
}

// Journal receives one entry per submitted adjustment.
type Journal interface {
	Append(entry internal.JournalEntry) error
}

// Recorder receives the session's scan events.
type Recorder interface {
	Record(event internal.SessionEvent)
}

// ConfirmationResult reports a successfully applied adjustment.
type ConfirmationResult struct {
	NewQuantity    int                   `json:"newQuantity"`
	SubmittedDelta float64               `json:"submittedDelta"`
	Entry          internal.JournalEntry `json:"entry"`
}

// Engine implements the reconciliation flow: resolve a scan, fetch the
// reference quantity, decide, then either confirm an adjustment or record a
// matching count. It owns no UI state; callers keep that in a session
// context.
type Engine struct {
	cfg     config.Config
	store   Inventory
	remote  StockSource
	journal Journal
	events  Recorder
	log     *logrus.Logger
}

func New(cfg config.Config, store Inventory, remote StockSource, journal Journal, events Recorder, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.New()
	}
	return &Engine{cfg: cfg, store: store, remote: remote, journal: journal, events: events, log: log}
}

// Resolve matches a scan or search term to exactly one inventory record.
// ByBarcode needs an exact match; ByName needs a term of two or more
// characters and fails with AmbiguousError when several rows match. Every
// attempt lands in the session ledger, misses included.
func (e *Engine) Resolve(term string, mode Mode) (internal.InventoryRecord, error) {
	term = strings.TrimSpace(term)

	switch mode {
	case ByName:
		candidates := e.store.SearchByName(term, e.cfg.SearchLimit)
		if len(candidates) == 0 {
			e.events.Record(internal.SessionEvent{Term: term, Status: internal.EventNotFound})
			return internal.InventoryRecord{}, fmt.Errorf("%w: %q", ErrNotFound, term)
		}
		if len(candidates) > 1 {
			e.events.Record(internal.SessionEvent{Term: term, Status: internal.EventAmbiguous})
			return internal.InventoryRecord{}, &AmbiguousError{Term: term, Candidates: candidates}
		}
		e.recordFound(term, candidates[0])
		return candidates[0], nil
	default:
		record, ok := e.store.FindByBarcode(term)
		if !ok {
			e.events.Record(internal.SessionEvent{Term: term, Status: internal.EventNotFound})
			return internal.InventoryRecord{}, fmt.Errorf("%w: %q", ErrNotFound, term)
		}
		e.recordFound(term, record)
		return record, nil
	}
}

// FetchReference captures the remote snapshot for a record. Any failure
// surfaces uniformly as ErrRemoteUnavailable; the engine does not care
// whether the cause was a timeout, a 4xx, or a mangled payload.
func (e *Engine) FetchReference(ctx context.Context, externalID string) (internal.ItemSnapshot, error) {
	if strings.TrimSpace(externalID) == "" {
		return internal.ItemSnapshot{}, ErrNoExternalID
	}
	snapshot, err := e.remote.GetItem(ctx, externalID)
	if err != nil {
		e.log.WithField("item", externalID).WithError(err).Warn("reference lookup failed")
		return internal.ItemSnapshot{}, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return snapshot, nil
}

// Lookup resolves a term and captures its reference quantity in one step.
// Records without an external id (or with the integration unconfigured)
// fall back to the locally cached baseline quantity, the way a plain file
// driven count works.
func (e *Engine) Lookup(ctx context.Context, term string, mode Mode) (*internal.ResolvedProduct, error) {
	record, err := e.Resolve(term, mode)
	if err != nil {
		return nil, err
	}

	if record.ExternalID == "" || !e.cfg.RemoteEnabled() {
		return &internal.ResolvedProduct{Record: record, Snapshot: localSnapshot(record)}, nil
	}

	snapshot, err := e.FetchReference(ctx, record.ExternalID)
	if err != nil {
		return nil, err
	}
	return &internal.ResolvedProduct{Record: record, Snapshot: snapshot}, nil
}

// Decide classifies a physical count against the resolved reference.
// Counted quantity must already be validated non-negative by the caller.
func (e *Engine) Decide(resolved *internal.ResolvedProduct, countedQuantity int) internal.AdjustmentDecision {
	return Decide(resolved.Snapshot.AvailableQuantity, countedQuantity, e.cfg.MinorDeltaMax)
}

// Confirm submits the adjustment for a nonzero delta, then applies it
// locally: store count, journal entry, session event. If the submission
// fails, nothing local changes — the remote system and the local records
// move together or not at all.
func (e *Engine) Confirm(ctx context.Context, resolved *internal.ResolvedProduct, decision internal.AdjustmentDecision) (*ConfirmationResult, error) {
	if decision.Kind == internal.KindMatch {
		return nil, ErrNothingToConfirm
	}
	if resolved.Snapshot.ExternalID == "" {
		return nil, ErrNoExternalID
	}

	adjustment := internal.Adjustment{
		ExternalID: resolved.Snapshot.ExternalID,
		Type:       internal.AdjustmentIn,
		Quantity:   decision.Delta,
		UnitCost:   resolved.Snapshot.UnitCost,
	}
	if decision.Delta < 0 {
		adjustment.Type = internal.AdjustmentOut
		adjustment.Quantity = -decision.Delta
	}

	if err := e.remote.SubmitAdjustment(ctx, adjustment); err != nil {
		e.log.WithFields(logrus.Fields{
			"barcode": resolved.Record.Barcode,
			"item":    resolved.Snapshot.ExternalID,
			"delta":   decision.Delta,
		}).WithError(err).Error("adjustment submission failed")
		return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}

	if err := e.store.RecordCount(resolved.Record.Barcode, decision.CountedQuantity); err != nil {
		// The remote side already moved; surface the local failure loudly
		// instead of pretending the confirmation never happened.
		e.log.WithField("barcode", resolved.Record.Barcode).WithError(err).Error("count persisted remotely but not locally")
		return nil, err
	}

	entry := internal.JournalEntry{
		Timestamp:      time.Now(),
		Barcode:        resolved.Record.Barcode,
		ExternalID:     resolved.Snapshot.ExternalID,
		DisplayName:    displayName(resolved),
		UnitPrice:      resolved.Snapshot.UnitPrice,
		QuantityBefore: decision.ReferenceQuantity,
		QuantityAfter:  float64(decision.CountedQuantity),
		Delta:          decision.Delta,
		Direction:      string(adjustment.Type),
	}
	if err := e.journal.Append(entry); err != nil {
		return nil, err
	}

	e.events.Record(internal.SessionEvent{
		Term:        resolved.Record.Barcode,
		Barcode:     resolved.Record.Barcode,
		DisplayName: displayName(resolved),
		Status:      internal.EventAdjusted,
		CountedQty:  decision.CountedQuantity,
		Delta:       decision.Delta,
	})

	e.log.WithFields(logrus.Fields{
		"barcode": resolved.Record.Barcode,
		"item":    resolved.Snapshot.ExternalID,
		"delta":   decision.Delta,
		"kind":    decision.Kind,
	}).Info("adjustment confirmed")

	return &ConfirmationResult{
		NewQuantity:    decision.CountedQuantity,
		SubmittedDelta: decision.Delta,
		Entry:          entry,
	}, nil
}

// RecordNoOp stores a count that matched the reference: local update and an
// OK session event, no remote call, no journal entry. Calling it twice with
// the same quantity is a no-op the second time.
func (e *Engine) RecordNoOp(resolved *internal.ResolvedProduct, countedQuantity int) error {
	if err := e.store.RecordCount(resolved.Record.Barcode, countedQuantity); err != nil {
		return err
	}
	e.events.Record(internal.SessionEvent{
		Term:        resolved.Record.Barcode,
		Barcode:     resolved.Record.Barcode,
		DisplayName: displayName(resolved),
		Status:      internal.EventOK,
		CountedQty:  countedQuantity,
	})
	return nil
}

func (e *Engine) recordFound(term string, record internal.InventoryRecord) {
	e.events.Record(internal.SessionEvent{
		Term:        term,
		Barcode:     record.Barcode,
		DisplayName: record.DisplayName,
		Status:      internal.EventFound,
	})
}

func localSnapshot(record internal.InventoryRecord) internal.ItemSnapshot {
	qty, _ := strconv.ParseFloat(strings.TrimSpace(record.BaselineQuantity), 64)
	return internal.ItemSnapshot{
		Name:              record.DisplayName,
		AvailableQuantity: qty,
	}
}

func displayName(resolved *internal.ResolvedProduct) string {
	if resolved.Snapshot.Name != "" {
		return resolved.Snapshot.Name
	}
	return resolved.Record.DisplayName
}
