// Package export renders the donation log for download.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"donations/internal/core"
	"donations/internal/storage/csvfile"
)

const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// SheetName is the worksheet that holds the records in an XLSX export.
	SheetName = "Donations"
)

// WriteCSV writes records in the canonical file layout.
func WriteCSV(w io.Writer, records []core.Donation) error {
	return csvfile.Encode(w, records)
}

// WriteXLSX writes records as a single-sheet workbook. Amounts are numeric
// cells in rupees.
func WriteXLSX(w io.Writer, records []core.Donation) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	for i, h := range csvfile.Header {
		if err := setCell(f, i+1, 1, h); err != nil {
			return err
		}
	}
	for i, d := range records {
		row := i + 2
		cols := csvfile.Row(d)
		values := []any{cols[0], d.Amount.Float(), cols[2], cols[3], cols[4]}
		for c, v := range values {
			if err := setCell(f, c+1, row, v); err != nil {
				return err
			}
		}
	}

	widths := map[string]float64{"A": 24, "B": 12, "C": 12, "D": 18, "E": 20}
	for col, width := range widths {
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("set width %s: %w", col, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(SheetName, cell, v)
}
