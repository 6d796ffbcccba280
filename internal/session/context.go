package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"stocktake/internal"
)

// Context is one operator's reconciliation state: the product currently
// resolved and the decision awaiting confirmation. It replaces ambient UI
// state with explicit fields, created at session start and dropped at exit.
type Context struct {
	ID        string
	StartedAt time.Time
	Ledger    *Ledger

	mu       sync.Mutex
	resolved *internal.ResolvedProduct
	pending  *internal.AdjustmentDecision
}

func NewContext(historySize int) *Context {
	return &Context{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Ledger:    NewLedger(historySize),
	}
}

// SetResolved stores a freshly resolved product and discards any pending
// decision from the previous scan.
func (c *Context) SetResolved(resolved *internal.ResolvedProduct) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolved = resolved
	c.pending = nil
}

func (c *Context) Resolved() *internal.ResolvedProduct {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolved
}

// SetPending stores a decision awaiting confirm. It survives a failed
// submission so the operator can retry without re-resolving.
func (c *Context) SetPending(decision *internal.AdjustmentDecision) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = decision
}

func (c *Context) Pending() *internal.AdjustmentDecision {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Finish marks the current reconciliation complete and clears both the
// resolved product and the pending decision.
func (c *Context) Finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolved = nil
	c.pending = nil
}
