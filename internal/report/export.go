package report

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"stocktake/internal"
)

// WriteXLSX renders the counting state of every inventory row to one sheet:
// expected vs counted quantity plus a per-row state column, the review table
// an operator walks after a counting cycle.
func WriteXLSX(records []internal.InventoryRecord, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{
		"barcode", "external_id", "display_name",
		"baseline_quantity", "last_counted_quantity", "state",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, rec := range records {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		state := "pending"
		if rec.Counted() {
			state = "counted"
		}

		set(1, rec.Barcode)
		set(2, rec.ExternalID)
		set(3, rec.DisplayName)
		set(4, rec.BaselineQuantity)
		set(5, rec.LastCountedQuantity)
		set(6, state)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
