package store

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseUpload turns an uploaded inventory file into raw rows, header first.
// XLSX files are read from their first sheet; anything else is treated as
// delimiter-separated text with the separator sniffed from the head of the
// file (semicolon wins over comma when present).
func ParseUpload(filename string, content []byte) ([][]string, error) {
	lower := strings.ToLower(strings.TrimSpace(filename))
	if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls") {
		return parseUploadXLSX(content)
	}
	return parseUploadCSV(content)
}

func parseUploadXLSX(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func parseUploadCSV(content []byte) ([][]string, error) {
	columns, rows, err := readTable(bytes.NewReader(content), sniffDelimiter(content))
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return append([][]string{columns}, rows...), nil
}

func sniffDelimiter(content []byte) rune {
	head := content
	if len(head) > 1000 {
		head = head[:1000]
	}
	if bytes.ContainsRune(head, ';') {
		return ';'
	}
	return ','
}
