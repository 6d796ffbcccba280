package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocktake/internal"
)

func sampleEntry(barcode string, delta float64) internal.JournalEntry {
	direction := "in"
	if delta < 0 {
		direction = "out"
	}
	return internal.JournalEntry{
		Timestamp:      time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
		Barcode:        barcode,
		ExternalID:     "A1",
		DisplayName:    "Cafe molido",
		UnitPrice:      9.5,
		QuantityBefore: 10,
		QuantityAfter:  10 + delta,
		Delta:          delta,
		Direction:      direction,
	}
}

func TestAppendAndAll(t *testing.T) {
	j := New(filepath.Join(t.TempDir(), "adjustments.csv"))

	require.NoError(t, j.Append(sampleEntry("123", -2)))
	require.NoError(t, j.Append(sampleEntry("456", 3)))

	entries, err := j.All()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "123", entries[0].Barcode)
	assert.Equal(t, "out", entries[0].Direction)
	assert.Equal(t, -2.0, entries[0].Delta)
	assert.Equal(t, 8.0, entries[0].QuantityAfter)
	assert.Equal(t, 9.5, entries[0].UnitPrice)

	assert.Equal(t, "456", entries[1].Barcode)
	assert.Equal(t, "in", entries[1].Direction)
}

func TestHeaderWrittenOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adjustments.csv")
	j := New(path)

	require.NoError(t, j.Append(sampleEntry("123", -2)))
	require.NoError(t, j.Append(sampleEntry("456", 1)))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(content), "timestamp,barcode"))
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	assert.Len(t, lines, 3, "header plus two rows")
}

func TestAppendNeverRewrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adjustments.csv")
	j := New(path)

	require.NoError(t, j.Append(sampleEntry("123", -2)))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, j.Append(sampleEntry("456", 1)))
	after, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(after), string(before)), "existing rows are never touched")
}

func TestAllOnMissingFile(t *testing.T) {
	j := New(filepath.Join(t.TempDir(), "adjustments.csv"))
	entries, err := j.All()
	require.NoError(t, err)
	assert.Empty(t, entries)
}
