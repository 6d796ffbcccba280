package store

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func mkXLSX(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	buf := bytes.NewBuffer(nil)
	_, err := f.WriteTo(buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParseUploadSemicolon(t *testing.T) {
	content := []byte("barcode;external_id;display_name\n123;A1;Cafe\n")
	rows, err := ParseUpload("inventory.csv", content)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"barcode", "external_id", "display_name"}, rows[0])
	assert.Equal(t, "123", rows[1][0])
}

func TestParseUploadComma(t *testing.T) {
	content := []byte("barcode,external_id\n123,A1\n")
	rows, err := ParseUpload("inventory.csv", content)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "A1", rows[1][1])
}

func TestParseUploadXLSX(t *testing.T) {
	blob := mkXLSX(t, [][]any{
		{"barcode", "external_id", "display_name"},
		{"123", "A1", "Cafe"},
		{"456", "B2", "Te"},
	})
	rows, err := ParseUpload("inventory.xlsx", blob)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "456", rows[2][0])
}

func TestParseUploadGarbage(t *testing.T) {
	_, err := ParseUpload("inventory.xlsx", []byte("not a workbook"))
	require.Error(t, err)
}
