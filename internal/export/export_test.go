package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"donations/internal/core"
)

func sample() []core.Donation {
	return []core.Donation{
		{Name: "Alice", Amount: core.Rupees(100), Purpose: core.PurposeHealth, Location: "Mumbai",
			Date: time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)},
		{Name: "Bob", Amount: core.Money{Paise: 3050}, Purpose: core.PurposeFood, Location: "Delhi"},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sample()); err != nil {
		t.Fatal(err)
	}
	want := "Name,Amount,Purpose,Location,Date\n" +
		"Alice,100,Health,Mumbai,2024-01-02 10:00:00\n" +
		"Bob,30.50,Food,Delhi,\n"
	if buf.String() != want {
		t.Errorf("csv =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sample()); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != SheetName {
		t.Errorf("sheets = %v", sheets)
	}
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if strings.Join(rows[0], ",") != "Name,Amount,Purpose,Location,Date" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "Alice" || rows[2][1] != "30.5" {
		t.Errorf("data rows = %v", rows[1:])
	}
}

func TestWriteXLSX_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 {
		t.Error("empty export should still produce a workbook")
	}
}
