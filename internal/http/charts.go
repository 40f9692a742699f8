package http

import (
	"html/template"
	"math"
	"strconv"
	"strings"
	"time"

	"donations/internal/core"
)

// Chart geometry in SVG user units.
const (
	trendWidth   = 600.0
	trendHeight  = 200.0
	trendPadding = 24.0

	pieRadius = 90.0
	pieCenter = 100.0

	geoWidth  = 300.0
	geoHeight = 320.0
	geoMinLon = 68.0
	geoMaxLon = 98.0
	geoMinLat = 6.0
	geoMaxLat = 37.0
)

type (
	// chartBar is one labelled share of a total.
	chartBar struct {
		Label   string
		Class   string
		Amount  core.Money
		Percent float64
	}

	pieSlice struct {
		chartBar
		Path string
		Full bool
	}

	// locationRow is one stacked bar: a location split by purpose.
	locationRow struct {
		Location string
		Total    core.Money
		Width    float64
		Segments []chartBar
	}

	trendDot struct {
		X, Y   float64
		Day    time.Time
		Amount core.Money
	}

	trendChart struct {
		Width, Height float64
		Line          string
		Dots          []trendDot
	}

	geoDot struct {
		X, Y, R float64
		Class   string
		Point   core.GeoPoint
	}

	geoChart struct {
		Width, Height float64
		Dots          []geoDot
		Unmapped      int
	}

	// reportView is the report plus the drawing data the templates need.
	reportView struct {
		core.Report
		ExportCSV    template.URL
		ExportXLSX   template.URL
		Purposes     []core.Purpose
		PurposeBars  []chartBar
		PurposePie   []pieSlice
		LocationRows []locationRow
		Trend        *trendChart
		Geo          *geoChart
	}
)

func newReportView(r core.Report) reportView {
	v := reportView{
		Report:     r,
		ExportCSV:  exportURL("/export.csv", r.Filter),
		ExportXLSX: exportURL("/export.xlsx", r.Filter),
		Purposes:   core.Purposes,
	}
	if r.Empty() {
		return v
	}
	v.PurposeBars = purposeBars(r.ByPurpose, r.Summary.Total)
	v.PurposePie = pieSlices(v.PurposeBars)
	v.LocationRows = locationRows(r.ByLocationAndPurpose)
	v.Trend = buildTrend(r.Trend)
	v.Geo = buildGeo(r.Geo, len(r.Records))
	return v
}

// exportURL keeps the current filter on download links. The query comes
// from url.Values.Encode so it is already escaped.
func exportURL(path string, f core.Filter) template.URL {
	if q := FilterQuery(f); q != "" {
		return template.URL(path + "?" + q)
	}
	return template.URL(path)
}

func share(part, whole core.Money) float64 {
	if whole.Paise <= 0 {
		return 0
	}
	return float64(part.Paise) * 100 / float64(whole.Paise)
}

func purposeBars(items []core.PurposeAmount, total core.Money) []chartBar {
	out := make([]chartBar, 0, len(items))
	for _, it := range items {
		out = append(out, chartBar{
			Label:   string(it.Purpose),
			Class:   purposeClass(it.Purpose),
			Amount:  it.Amount,
			Percent: share(it.Amount, total),
		})
	}
	return out
}

func pieSlices(bars []chartBar) []pieSlice {
	out := make([]pieSlice, 0, len(bars))
	if len(bars) == 1 {
		return append(out, pieSlice{chartBar: bars[0], Full: true})
	}
	angle := -math.Pi / 2
	for _, b := range bars {
		sweep := b.Percent / 100 * 2 * math.Pi
		out = append(out, pieSlice{chartBar: b, Path: arcPath(angle, angle+sweep)})
		angle += sweep
	}
	return out
}

// arcPath draws a pie wedge between two angles in radians.
func arcPath(from, to float64) string {
	x1 := pieCenter + pieRadius*math.Cos(from)
	y1 := pieCenter + pieRadius*math.Sin(from)
	x2 := pieCenter + pieRadius*math.Cos(to)
	y2 := pieCenter + pieRadius*math.Sin(to)
	large := "0"
	if to-from > math.Pi {
		large = "1"
	}
	var b strings.Builder
	b.WriteString("M" + trimFloat(pieCenter) + " " + trimFloat(pieCenter))
	b.WriteString(" L" + trimFloat(x1) + " " + trimFloat(y1))
	b.WriteString(" A" + trimFloat(pieRadius) + " " + trimFloat(pieRadius) + " 0 " + large + " 1 " + trimFloat(x2) + " " + trimFloat(y2))
	b.WriteString(" Z")
	return b.String()
}

func locationRows(cells []core.LocationPurposeAmount) []locationRow {
	var rows []locationRow
	for _, c := range cells {
		if len(rows) == 0 || rows[len(rows)-1].Location != c.Location {
			rows = append(rows, locationRow{Location: c.Location})
		}
		row := &rows[len(rows)-1]
		row.Total = row.Total.Add(c.Amount)
		row.Segments = append(row.Segments, chartBar{
			Label:  string(c.Purpose),
			Class:  purposeClass(c.Purpose),
			Amount: c.Amount,
		})
	}

	var peak core.Money
	for _, r := range rows {
		if r.Total.Paise > peak.Paise {
			peak = r.Total
		}
	}
	for i := range rows {
		rows[i].Width = share(rows[i].Total, peak)
		for j := range rows[i].Segments {
			rows[i].Segments[j].Percent = share(rows[i].Segments[j].Amount, rows[i].Total)
		}
	}
	return rows
}

func buildTrend(days []core.DailyTotal) *trendChart {
	if len(days) == 0 {
		return nil
	}
	var peak core.Money
	for _, d := range days {
		if d.Amount.Paise > peak.Paise {
			peak = d.Amount
		}
	}

	c := &trendChart{Width: trendWidth, Height: trendHeight}
	plotW := trendWidth - 2*trendPadding
	plotH := trendHeight - 2*trendPadding
	points := make([]string, 0, len(days))
	for i, d := range days {
		x := trendWidth / 2
		if len(days) > 1 {
			x = trendPadding + plotW*float64(i)/float64(len(days)-1)
		}
		y := trendHeight - trendPadding - plotH*share(d.Amount, peak)/100
		c.Dots = append(c.Dots, trendDot{X: round1(x), Y: round1(y), Day: d.Day, Amount: d.Amount})
		points = append(points, trimFloat(x)+","+trimFloat(y))
	}
	c.Line = strings.Join(points, " ")
	return c
}

func buildGeo(points []core.GeoPoint, filtered int) *geoChart {
	c := &geoChart{Width: geoWidth, Height: geoHeight, Unmapped: filtered - len(points)}
	var peak core.Money
	for _, p := range points {
		if p.Amount.Paise > peak.Paise {
			peak = p.Amount
		}
	}
	for _, p := range points {
		x := (p.Lon - geoMinLon) / (geoMaxLon - geoMinLon) * geoWidth
		y := (geoMaxLat - p.Lat) / (geoMaxLat - geoMinLat) * geoHeight
		r := 4 + 12*math.Sqrt(share(p.Amount, peak)/100)
		c.Dots = append(c.Dots, geoDot{X: round1(x), Y: round1(y), R: round1(r), Class: purposeClass(p.Purpose), Point: p})
	}
	return c
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(round1(f), 'f', -1, 64)
}
