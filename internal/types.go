package internal

import "time"

// InventoryRecord is one row of the loaded inventory table, projected onto
// the well-known columns. Extra columns from the uploaded file are kept in
// the store verbatim and are not visible here.
type InventoryRecord struct {
	Row                 int    `json:"-"`
	Barcode             string `json:"barcode"`
	ExternalID          string `json:"externalId"`
	DisplayName         string `json:"displayName,omitempty"`
	BaselineQuantity    string `json:"baselineQuantity,omitempty"`
	LastCountedQuantity string `json:"lastCountedQuantity"`
}

// Counted reports whether this record has been reconciled in the current
// counting cycle. An empty last_counted_quantity is distinct from "0".
func (r InventoryRecord) Counted() bool {
	return r.LastCountedQuantity != ""
}

// ItemSnapshot is the remote bookkeeping system's view of an item at
// resolution time. Never persisted; numeric fields absent in the response
// are zero, not null.
type ItemSnapshot struct {
	ExternalID        string  `json:"externalId"`
	Name              string  `json:"name"`
	AvailableQuantity float64 `json:"availableQuantity"`
	UnitCost          float64 `json:"unitCost"`
	UnitPrice         float64 `json:"unitPrice"`
}

// ResolvedProduct pairs a local inventory record with the remote snapshot
// captured for it. It stays valid across a failed confirm, so the caller may
// retry without re-resolving.
type ResolvedProduct struct {
	Record   InventoryRecord `json:"record"`
	Snapshot ItemSnapshot    `json:"snapshot"`
}

type DecisionKind string

type MagnitudeClass string

const (
	KindMatch    DecisionKind = "MATCH"
	KindSurplus  DecisionKind = "SURPLUS"
	KindShortage DecisionKind = "SHORTAGE"

	MagnitudeNone  MagnitudeClass = "NONE"
	MagnitudeMinor MagnitudeClass = "MINOR"
	MagnitudeMajor MagnitudeClass = "MAJOR"
)

// AdjustmentDecision is the pure outcome of comparing a physical count to
// the reference quantity.
type AdjustmentDecision struct {
	CountedQuantity   int            `json:"countedQuantity"`
	ReferenceQuantity float64        `json:"referenceQuantity"`
	Delta             float64        `json:"delta"`
	Kind              DecisionKind   `json:"kind"`
	Magnitude         MagnitudeClass `json:"magnitude"`
}

type AdjustmentType string

const (
	AdjustmentIn  AdjustmentType = "in"
	AdjustmentOut AdjustmentType = "out"
)

// Adjustment is the payload submitted to the remote bookkeeping system for
// a nonzero delta.
type Adjustment struct {
	ExternalID string
	Type       AdjustmentType
	Quantity   float64
	UnitCost   float64
}

// JournalEntry is one confirmed adjustment, immutable once appended.
// Direction is empty when delta was zero and nothing was submitted.
type JournalEntry struct {
	Timestamp      time.Time `json:"timestamp"`
	Barcode        string    `json:"barcode"`
	ExternalID     string    `json:"externalId"`
	DisplayName    string    `json:"displayName"`
	UnitPrice      float64   `json:"unitPrice"`
	QuantityBefore float64   `json:"quantityBefore"`
	QuantityAfter  float64   `json:"quantityAfter"`
	Delta          float64   `json:"delta"`
	Direction      string    `json:"direction"`
}

type EventStatus string

const (
	EventFound     EventStatus = "FOUND"
	EventNotFound  EventStatus = "NOT_FOUND"
	EventAmbiguous EventStatus = "AMBIGUOUS"
	EventOK        EventStatus = "OK"
	EventAdjusted  EventStatus = "ADJUSTED"
)

// SessionEvent is one entry of the operator's scan history. Display only,
// never persisted.
type SessionEvent struct {
	At          time.Time   `json:"at"`
	Term        string      `json:"term"`
	Barcode     string      `json:"barcode,omitempty"`
	DisplayName string      `json:"displayName,omitempty"`
	Status      EventStatus `json:"status"`
	CountedQty  int         `json:"countedQty,omitempty"`
	Delta       float64     `json:"delta,omitempty"`
}

// StoreStats summarizes counting progress over the loaded table.
type StoreStats struct {
	Total   int `json:"total"`
	Counted int `json:"counted"`
}
