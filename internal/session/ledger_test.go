package session

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocktake/internal"
)

func TestLedgerRingBound(t *testing.T) {
	l := NewLedger(50)
	for i := 1; i <= 51; i++ {
		l.Record(internal.SessionEvent{Term: strconv.Itoa(i), Status: internal.EventOK})
	}

	events := l.Snapshot()
	require.Len(t, events, 50)
	assert.Equal(t, "51", events[0].Term, "newest first")
	assert.Equal(t, "2", events[49].Term, "oldest event dropped")
}

func TestLedgerStampsAndClears(t *testing.T) {
	l := NewLedger(10)
	l.Record(internal.SessionEvent{Term: "123", Status: internal.EventNotFound})

	events := l.Snapshot()
	require.Len(t, events, 1)
	assert.False(t, events[0].At.IsZero())

	l.Clear()
	assert.Empty(t, l.Snapshot())
}

func TestContextLifecycle(t *testing.T) {
	c := NewContext(10)
	require.NotEmpty(t, c.ID)
	require.NotNil(t, c.Ledger)

	resolved := &internal.ResolvedProduct{
		Record: internal.InventoryRecord{Barcode: "123"},
	}
	c.SetResolved(resolved)
	decision := internal.AdjustmentDecision{CountedQuantity: 8, Delta: -2, Kind: internal.KindShortage}
	c.SetPending(&decision)

	assert.Equal(t, resolved, c.Resolved())
	assert.Equal(t, &decision, c.Pending())

	// A new scan discards the previous pending decision.
	c.SetResolved(&internal.ResolvedProduct{Record: internal.InventoryRecord{Barcode: "456"}})
	assert.Nil(t, c.Pending())

	c.Finish()
	assert.Nil(t, c.Resolved())
	assert.Nil(t, c.Pending())
}
