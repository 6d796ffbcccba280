package journal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"stocktake/internal"
)

var header = []string{
	"timestamp", "barcode", "external_id", "display_name", "unit_price",
	"quantity_before", "quantity_after", "delta", "direction",
}

// Journal is the append-only record of submitted adjustments. Entries are
// written only after the remote system accepted the adjustment; prior rows
// are never rewritten.
type Journal struct {
	path string

	mu sync.Mutex
}

func New(path string) *Journal {
	return &Journal{path: path}
}

// Append writes one entry, creating the file (with its header) on first use.
func (j *Journal) Append(entry internal.JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return err
	}

	_, statErr := os.Stat(j.path)
	fresh := errors.Is(statErr, os.ErrNotExist)

	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(header); err != nil {
			return err
		}
	}
	if err := w.Write(toRow(entry)); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// All returns every entry in file order. Callers wanting recency sort by
// timestamp descending themselves.
func (j *Journal) All() ([]internal.JournalEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.Open(j.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	out := make([]internal.JournalEntry, 0, len(rows)-1)
	for _, row := range rows[1:] {
		entry, err := fromRow(row)
		if err != nil {
			return nil, fmt.Errorf("read journal: %w", err)
		}
		out = append(out, entry)
	}
	return out, nil
}

func toRow(e internal.JournalEntry) []string {
	return []string{
		e.Timestamp.UTC().Format(time.RFC3339),
		e.Barcode,
		e.ExternalID,
		e.DisplayName,
		formatFloat(e.UnitPrice),
		formatFloat(e.QuantityBefore),
		formatFloat(e.QuantityAfter),
		formatFloat(e.Delta),
		e.Direction,
	}
}

func fromRow(row []string) (internal.JournalEntry, error) {
	ts, err := time.Parse(time.RFC3339, row[0])
	if err != nil {
		return internal.JournalEntry{}, err
	}
	entry := internal.JournalEntry{
		Timestamp:   ts,
		Barcode:     row[1],
		ExternalID:  row[2],
		DisplayName: row[3],
		Direction:   row[8],
	}
	entry.UnitPrice, err = parseFloat(row[4])
	if err != nil {
		return internal.JournalEntry{}, err
	}
	entry.QuantityBefore, err = parseFloat(row[5])
	if err != nil {
		return internal.JournalEntry{}, err
	}
	entry.QuantityAfter, err = parseFloat(row[6])
	if err != nil {
		return internal.JournalEntry{}, err
	}
	entry.Delta, err = parseFloat(row[7])
	if err != nil {
		return internal.JournalEntry{}, err
	}
	return entry, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseFloat(v string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.ParseFloat(v, 64)
}
