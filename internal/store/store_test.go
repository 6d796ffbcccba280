package store

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "inventory.csv"), ';')
}

func sampleRows() [][]string {
	return [][]string{
		{"barcode", "external_id", "display_name", "baseline_quantity"},
		{"123", "A1", "Cafe molido 500g", "10"},
		{"456", "B2", "Cafe en grano 1kg", "4"},
		{"789", "C3", "Azucar morena", "7"},
	}
}

func TestReplaceLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Replace(sampleRows(), []string{ColBarcode, ColExternalID}))

	reloaded := New(s.path, ';')
	require.NoError(t, reloaded.Load())

	records := reloaded.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "123", records[0].Barcode)
	assert.Equal(t, "A1", records[0].ExternalID)
	assert.Equal(t, "", records[0].LastCountedQuantity)
}

func TestLoadMissingFile(t *testing.T) {
	s := newTestStore(t)
	require.ErrorIs(t, s.Load(), ErrNotLoaded)
}

func TestLoadCorruptTable(t *testing.T) {
	s := newTestStore(t)
	// A table without a barcode column is unusable.
	require.NoError(t, s.Replace([][]string{{"name"}, {"x"}}, nil))

	reloaded := New(s.path, ';')
	require.ErrorIs(t, reloaded.Load(), ErrCorruptData)
}

func TestReplaceMissingColumnsNamed(t *testing.T) {
	s := newTestStore(t)
	err := s.Replace([][]string{{"display_name"}, {"Cafe"}}, []string{ColBarcode, ColExternalID})

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{ColBarcode, ColExternalID}, schemaErr.Missing)
}

func TestReplaceNormalizesAndDedupes(t *testing.T) {
	s := newTestStore(t)
	rows := [][]string{
		{"barcode", "external_id", "display_name"},
		{" 123 ", " A1 ", "first"},
		{"123", "A2", "second"},
	}
	require.NoError(t, s.Replace(rows, []string{ColBarcode, ColExternalID}))

	records := s.Records()
	require.Len(t, records, 1)
	// Last row wins on upload.
	assert.Equal(t, "A2", records[0].ExternalID)
	assert.Equal(t, "second", records[0].DisplayName)
}

func TestFindByBarcode(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Replace(sampleRows(), []string{ColBarcode}))

	rec, ok := s.FindByBarcode("456")
	require.True(t, ok)
	assert.Equal(t, "456", rec.Barcode)
	assert.Equal(t, "Cafe en grano 1kg", rec.DisplayName)

	rec, ok = s.FindByBarcode(" 456 ")
	require.True(t, ok, "lookup trims the scanned code")
	assert.Equal(t, "456", rec.Barcode)

	_, ok = s.FindByBarcode("000")
	assert.False(t, ok)
}

func TestSearchByName(t *testing.T) {
	s := newTestStore(t)
	rows := [][]string{
		{"barcode", "external_id", "display_name"},
		{"1", "A", "Cafe uno"},
		{"2", "B", "Cafe dos"},
		{"3", "C", "Cafe tres"},
		{"4", "D", "Cafe cuatro"},
		{"5", "E", "Cafe cinco"},
		{"6", "F", "Te verde"},
	}
	require.NoError(t, s.Replace(rows, []string{ColBarcode}))

	got := s.SearchByName("ca", 2)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].Barcode)
	assert.Equal(t, "2", got[1].Barcode)

	assert.Len(t, s.SearchByName("CAFE", 0), 5, "case insensitive, unlimited")
	assert.Empty(t, s.SearchByName("c", 10), "single-character terms return nothing")
}

func TestRecordCountPersistsAndIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Replace(sampleRows(), []string{ColBarcode}))

	require.NoError(t, s.RecordCount("123", 8))
	require.NoError(t, s.RecordCount("123", 8))

	reloaded := New(s.path, ';')
	require.NoError(t, reloaded.Load())
	rec, ok := reloaded.FindByBarcode("123")
	require.True(t, ok)
	assert.Equal(t, "8", rec.LastCountedQuantity)
	assert.True(t, rec.Counted())

	require.ErrorIs(t, s.RecordCount("missing", 1), ErrUnknownBarcode)
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Replace(sampleRows(), []string{ColBarcode}))

	stats := s.Stats()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 0, stats.Counted)

	require.NoError(t, s.RecordCount("123", 0))
	stats = s.Stats()
	assert.Equal(t, 1, stats.Counted, "a recorded zero still counts as counted")
}

func TestExtraColumnsSurviveRewrite(t *testing.T) {
	s := newTestStore(t)
	rows := [][]string{
		{"barcode", "external_id", "display_name", "warehouse_shelf"},
		{"123", "A1", "Cafe", "B-14"},
	}
	require.NoError(t, s.Replace(rows, []string{ColBarcode}))
	require.NoError(t, s.RecordCount("123", 5))

	var buf bytes.Buffer
	require.NoError(t, s.Export(&buf))
	assert.Contains(t, buf.String(), "warehouse_shelf")
	assert.Contains(t, buf.String(), "B-14")
}

func TestExportBeforeLoad(t *testing.T) {
	s := newTestStore(t)
	var buf bytes.Buffer
	require.True(t, errors.Is(s.Export(&buf), ErrNotLoaded))
}
