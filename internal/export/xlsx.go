// Package export renders the master log as an XLSX workbook for accountants
// who want the filed receipts as a spreadsheet rather than JSON.
package export

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/parvezamm3/receipt-agent/internal/fields"
)

const sheet = "Receipts"

var headers = []string{
	"Filed Name",
	"Transaction Date",
	"Amount",
	"Vendor",
	"Registration Number",
	"Original Filename",
}

// BuildWorkbook renders the log entries, keyed by filed name, into a
// workbook. Rows are sorted by filed name so the export is stable.
func BuildWorkbook(entries map[string]fields.Record) (*excelize.File, error) {
	f := excelize.NewFile()
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	for row, name := range names {
		rec := entries[name]
		values := []any{
			name,
			rec.TxDate,
			rec.Amount,
			rec.Vendor.Name,
			rec.Registration,
			rec.OriginalName,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row+2, err)
			}
		}
	}
	return f, nil
}

// WriteXLSX renders entries and saves the workbook at path.
func WriteXLSX(entries map[string]fields.Record, path string) error {
	f, err := BuildWorkbook(entries)
	if err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return f.Close()
}
