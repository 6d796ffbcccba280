package session

import (
	"sync"
	"time"

	"stocktake/internal"
)

// Ledger keeps the operator's most recent scan events, newest first. It is
// bounded, in-memory only, and lives exactly as long as the process.
type Ledger struct {
	mu     sync.Mutex
	max    int
	events []internal.SessionEvent
}

func NewLedger(max int) *Ledger {
	if max <= 0 {
		max = 50
	}
	return &Ledger{max: max}
}

// Record prepends the event, stamping it if the caller didn't, and drops the
// oldest entry once the ledger is full.
func (l *Ledger) Record(event internal.SessionEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if event.At.IsZero() {
		event.At = time.Now()
	}
	l.events = append([]internal.SessionEvent{event}, l.events...)
	if len(l.events) > l.max {
		l.events = l.events[:l.max]
	}
}

// Snapshot returns a copy of the events, most recent first.
func (l *Ledger) Snapshot() []internal.SessionEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]internal.SessionEvent, len(l.events))
	copy(out, l.events)
	return out
}

func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}
