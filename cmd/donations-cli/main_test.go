package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func useTempBackend(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "donations.csv")
	t.Setenv("DATA_BACKEND", "csv")
	t.Setenv("DATA_PATH", path)
	t.Setenv("AMQP_URL", "")
	t.Setenv("LOG_LEVEL", "error")
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestAddListReport(t *testing.T) {
	path := useTempBackend(t)

	if _, err := run(t, "add", "--name", "Asha", "--amount", "500", "--purpose", "education", "--location", "Delhi"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := run(t, "add", "--name", "Ravi", "--amount", "120.50", "--purpose", "Health", "--location", "Pune"); err != nil {
		t.Fatalf("add: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "Name,Amount,Purpose,Location,Date") {
		t.Errorf("file = %q", data)
	}

	out, err := run(t, "list", "--location", "Pune")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Ravi") || strings.Contains(out, "Asha") {
		t.Errorf("list output = %q", out)
	}

	out, err = run(t, "report")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	for _, want := range []string{"2 of 2", "₹620.50", "Education", "Mapped donations  1 of 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestAddRejectsMissingFields(t *testing.T) {
	path := useTempBackend(t)

	_, err := run(t, "add", "--name", " ", "--amount", "10", "--purpose", "Food", "--location", "Delhi")
	if err == nil || !strings.Contains(err.Error(), "Please fill all the fields.") {
		t.Fatalf("err = %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("a rejected donation must not create the file")
	}
}

func TestReportEmptyStates(t *testing.T) {
	useTempBackend(t)

	out, err := run(t, "report")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No donations recorded yet.") {
		t.Errorf("out = %q", out)
	}

	if _, err := run(t, "add", "--name", "Asha", "--amount", "5", "--purpose", "Food", "--location", "Delhi"); err != nil {
		t.Fatal(err)
	}
	out, err = run(t, "report", "--location", "Chennai")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No data to display in charts. Try adjusting the filters.") {
		t.Errorf("out = %q", out)
	}

	if _, err := run(t, "report", "--purpose", "Travel"); err == nil {
		t.Error("unknown purpose flag should be rejected")
	}
}

func TestExportAndImport(t *testing.T) {
	useTempBackend(t)
	if _, err := run(t, "add", "--name", "Asha", "--amount", "5", "--purpose", "Food", "--location", "Delhi"); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "export")
	if err != nil {
		t.Fatalf("export csv: %v", err)
	}
	if !strings.Contains(out, "Asha,5,Food,Delhi,") {
		t.Errorf("csv = %q", out)
	}

	xlsx := filepath.Join(t.TempDir(), "out.xlsx")
	if _, err := run(t, "export", "--format", "xlsx", "--out", xlsx); err != nil {
		t.Fatalf("export xlsx: %v", err)
	}
	f, err := excelize.OpenFile(xlsx)
	if err != nil {
		t.Fatal(err)
	}
	rows, err := f.GetRows("Donations")
	_ = f.Close()
	if err != nil || len(rows) != 2 {
		t.Errorf("rows = %v, err = %v", rows, err)
	}

	if _, err := run(t, "export", "--format", "xlsx"); err == nil {
		t.Error("xlsx to stdout should be rejected")
	}

	legacy := filepath.Join(t.TempDir(), "legacy.csv")
	if err := os.WriteFile(legacy, []byte("Name,Amount,Purpose,Location\nMeera,300,Shelter,Mumbai\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err = run(t, "import", legacy)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "Imported 1 donations (1 without a date); 2 stored in total") {
		t.Errorf("import output = %q", out)
	}
}
