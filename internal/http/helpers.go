package http

import (
	"html/template"
	"strings"
	"time"

	"donations/internal/core"
)

// sanitizeInput drops control characters other than tab and newlines,
// then trims whitespace.
func sanitizeInput(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// purposeClass is the CSS modifier used to colour a purpose consistently.
func purposeClass(p core.Purpose) string {
	return "purpose-" + strings.ToLower(string(p))
}

func formatRecordDate(d core.Donation) string {
	if !d.HasDate() {
		return "-"
	}
	return d.Date.Format("2006-01-02 15:04")
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"rupees":       func(m core.Money) string { return m.Display() },
		"purposeClass": purposeClass,
		"recordDate":   formatRecordDate,
		"day":          func(t time.Time) string { return t.Format("02 Jan") },
		"pct":          func(f float64) string { return trimFloat(f) },
		"coord":        func(f float64) string { return trimFloat(f) },
		"selected": func(set []string, v string) bool {
			for _, s := range set {
				if s == v {
					return true
				}
			}
			return false
		},
		"purposeSelected": func(set []core.Purpose, v core.Purpose) bool {
			for _, p := range set {
				if p == v {
					return true
				}
			}
			return false
		},
	}
}
