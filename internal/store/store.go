package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"stocktake/internal"
)

// Well-known column names of the persisted inventory table. Uploaded files
// may carry any extra columns; they are preserved verbatim on rewrite.
const (
	ColBarcode          = "barcode"
	ColExternalID       = "external_id"
	ColDisplayName      = "display_name"
	ColBaselineQuantity = "baseline_quantity"
	ColLastCounted      = "last_counted_quantity"
)

var (
	// ErrNotLoaded means no inventory table has ever been uploaded.
	ErrNotLoaded = errors.New("no inventory table loaded")
	// ErrCorruptData means the persisted table exists but is unreadable.
	ErrCorruptData = errors.New("inventory table is corrupt")
	// ErrUnknownBarcode means RecordCount was asked for a barcode that is
	// not in the table.
	ErrUnknownBarcode = errors.New("unknown barcode")
)

// SchemaError reports an upload rejected for missing required columns.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("upload missing required columns: %s", strings.Join(e.Missing, ", "))
}

// Store owns the persisted inventory table. Every mutation re-reads and
// rewrites the whole file inside one mutex section, so concurrent
// reconciliations cannot lose each other's counts.
type Store struct {
	path      string
	delimiter rune

	mu      sync.Mutex
	columns []string
	rows    [][]string
	colIdx  map[string]int
	loaded  bool
}

func New(path string, delimiter rune) *Store {
	return &Store{path: path, delimiter: delimiter}
}

// Load reads the persisted table into memory. ErrNotLoaded if the file has
// never been written, ErrCorruptData if it cannot be parsed or lacks the
// barcode column.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() error {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotLoaded
	}
	if err != nil {
		return err
	}
	defer f.Close()

	columns, rows, err := readTable(f, s.delimiter)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptData, err)
	}
	if indexOf(columns, ColBarcode) < 0 {
		return fmt.Errorf("%w: missing column %s", ErrCorruptData, ColBarcode)
	}

	s.install(columns, rows)
	return nil
}

// Replace validates, normalizes, and persists a freshly uploaded table,
// discarding whatever was loaded before. rows includes the header row.
// Duplicate barcodes resolve last-row-wins here, so lookups never see them.
func (s *Store) Replace(rows [][]string, required []string) error {
	if len(rows) == 0 {
		return &SchemaError{Missing: required}
	}

	columns := trimAll(rows[0])
	var missing []string
	for _, name := range required {
		if indexOf(columns, name) < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}

	body := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		body = append(body, padRow(row, len(columns)))
	}

	barcodeIdx := indexOf(columns, ColBarcode)
	externalIdx := indexOf(columns, ColExternalID)
	for _, row := range body {
		if barcodeIdx >= 0 {
			row[barcodeIdx] = strings.TrimSpace(row[barcodeIdx])
		}
		if externalIdx >= 0 {
			row[externalIdx] = strings.TrimSpace(row[externalIdx])
		}
	}
	if barcodeIdx >= 0 {
		body = dedupeLastWins(body, barcodeIdx)
	}

	if indexOf(columns, ColLastCounted) < 0 {
		columns = append(columns, ColLastCounted)
		for i := range body {
			body[i] = append(body[i], "")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.install(columns, body)
	return s.writeLocked()
}

// FindByBarcode returns the first row whose barcode equals the trimmed code.
func (s *Store) FindByBarcode(code string) (internal.InventoryRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code = strings.TrimSpace(code)
	if !s.loaded || code == "" {
		return internal.InventoryRecord{}, false
	}
	idx := s.colIdx[ColBarcode]
	for i, row := range s.rows {
		if row[idx] == code {
			return s.recordAt(i), true
		}
	}
	return internal.InventoryRecord{}, false
}

// SearchByName returns up to limit records whose display name contains term,
// case-insensitively, in table order. Terms shorter than two characters
// return nothing.
func (s *Store) SearchByName(term string, limit int) []internal.InventoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	term = strings.ToLower(strings.TrimSpace(term))
	if !s.loaded || len([]rune(term)) < 2 {
		return nil
	}
	nameIdx, ok := s.colIdx[ColDisplayName]
	if !ok {
		return nil
	}

	var out []internal.InventoryRecord
	for i, row := range s.rows {
		if strings.Contains(strings.ToLower(row[nameIdx]), term) {
			out = append(out, s.recordAt(i))
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out
}

// RecordCount sets last_counted_quantity for the first row matching code and
// rewrites the table. The file is re-read first so a concurrent session's
// counts are not clobbered.
func (s *Store) RecordCount(code string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil && !errors.Is(err, ErrNotLoaded) {
		return err
	}
	if !s.loaded {
		return ErrNotLoaded
	}

	code = strings.TrimSpace(code)
	barcodeIdx := s.colIdx[ColBarcode]
	countedIdx, ok := s.colIdx[ColLastCounted]
	if !ok {
		s.columns = append(s.columns, ColLastCounted)
		countedIdx = len(s.columns) - 1
		for i := range s.rows {
			s.rows[i] = append(s.rows[i], "")
		}
		s.colIdx[ColLastCounted] = countedIdx
	}

	for _, row := range s.rows {
		if row[barcodeIdx] == code {
			row[countedIdx] = strconv.Itoa(quantity)
			return s.writeLocked()
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownBarcode, code)
}

// Stats reports counting progress: total rows and rows already counted.
func (s *Store) Stats() internal.StoreStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := internal.StoreStats{Total: len(s.rows)}
	countedIdx, ok := s.colIdx[ColLastCounted]
	if !ok {
		return stats
	}
	for _, row := range s.rows {
		if strings.TrimSpace(row[countedIdx]) != "" {
			stats.Counted++
		}
	}
	return stats
}

// Records returns every row projected onto the well-known columns, in
// table order.
func (s *Store) Records() []internal.InventoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]internal.InventoryRecord, 0, len(s.rows))
	for i := range s.rows {
		out = append(out, s.recordAt(i))
	}
	return out
}

// Export writes the current table to w using the configured delimiter.
func (s *Store) Export(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return ErrNotLoaded
	}
	return writeTable(w, s.delimiter, s.columns, s.rows)
}

func (s *Store) install(columns []string, rows [][]string) {
	s.columns = columns
	s.rows = rows
	s.colIdx = map[string]int{}
	for i, name := range columns {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, exists := s.colIdx[key]; !exists {
			s.colIdx[key] = i
		}
	}
	if idx, ok := s.colIdx[ColBarcode]; ok {
		for _, row := range s.rows {
			row[idx] = strings.TrimSpace(row[idx])
		}
	}
	s.loaded = true
}

func (s *Store) recordAt(i int) internal.InventoryRecord {
	row := s.rows[i]
	cell := func(name string) string {
		idx, ok := s.colIdx[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}
	return internal.InventoryRecord{
		Row:                 i,
		Barcode:             cell(ColBarcode),
		ExternalID:          cell(ColExternalID),
		DisplayName:         cell(ColDisplayName),
		BaselineQuantity:    cell(ColBaselineQuantity),
		LastCountedQuantity: cell(ColLastCounted),
	}
}

func (s *Store) writeLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".inventory-*.csv")
	if err != nil {
		return err
	}
	if err := writeTable(tmp, s.delimiter, s.columns, s.rows); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func readTable(r io.Reader, delimiter rune) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(all) == 0 {
		return nil, nil, errors.New("empty table")
	}

	columns := trimAll(all[0])
	rows := make([][]string, 0, len(all)-1)
	for _, row := range all[1:] {
		rows = append(rows, padRow(row, len(columns)))
	}
	return columns, rows, nil
}

func writeTable(w io.Writer, delimiter rune, columns []string, rows [][]string) error {
	writer := csv.NewWriter(w)
	writer.Comma = delimiter
	if err := writer.Write(columns); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(padRow(row, len(columns))); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func dedupeLastWins(rows [][]string, barcodeIdx int) [][]string {
	last := map[string]int{}
	for i, row := range rows {
		if code := row[barcodeIdx]; code != "" {
			last[code] = i
		}
	}
	out := make([][]string, 0, len(rows))
	for i, row := range rows {
		code := row[barcodeIdx]
		if code != "" && last[code] != i {
			continue
		}
		out = append(out, row)
	}
	return out
}

func indexOf(columns []string, name string) int {
	for i, c := range columns {
		if strings.EqualFold(strings.TrimSpace(c), name) {
			return i
		}
	}
	return -1
}

func trimAll(row []string) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

func padRow(row []string, width int) []string {
	if len(row) == width {
		return row
	}
	if len(row) > width {
		return row[:width]
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}
