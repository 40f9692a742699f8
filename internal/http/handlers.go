package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"donations/internal/core"
	"donations/internal/export"
	"donations/internal/log"
	"donations/internal/session"
)

const (
	successMessage      = "Donation added successfully!"
	storageErrorMessage = "Could not save the donation. Please try again."
	reportErrorMessage  = "Could not load donations. Please try again."
)

type indexPage struct {
	Username    string
	AuthEnabled bool
	Report      reportView
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	f := ParseFilter(r.URL.Query())
	rep, err := s.reports.Report(r.Context(), f)
	if err != nil {
		s.reportFailure(w, r, err)
		return
	}
	page := indexPage{
		AuthEnabled: s.sessions != nil,
		Report:      newReportView(rep),
	}
	if sess := session.FromContext(r.Context()); sess != nil {
		page.Username = sess.Username
	}
	s.render(w, r, http.StatusOK, "index.html", page)
}

// handleCreateDonation answers the add form with a status fragment and
// HX-Trigger events that refresh the report.
func (s *Server) handleCreateDonation(w http.ResponseWriter, r *http.Request) {
	if !ParseFormOrFail(w, r) {
		return
	}
	in := ParseDonationForm(r.PostForm)

	d, err := s.donations.Append(r.Context(), in)
	switch {
	case err == nil:
	case errors.Is(err, core.ErrValidation):
		s.metrics.validationFailures.Add(1)
		UnprocessableEntityError(core.MissingFieldsMessage).
			TriggerErrorNotification(core.MissingFieldsMessage).
			Write(w)
		return
	default:
		s.metrics.storageFailures.Add(1)
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to record donation",
			log.FieldOperation, log.OpAppend, log.FieldError, err)
		InternalServerError(storageErrorMessage).
			TriggerErrorNotification(storageErrorMessage).
			Write(w)
		return
	}

	s.metrics.donations.Add(1)
	NewHTMXResponse().
		TriggerDonationCreated(d.Purpose, d.Location).
		TriggerFormReset().
		TriggerSuccessNotification(successMessage).
		BodyHTML(`<div class="success">` + successMessage + `</div>`).
		Write(w)
}

func (s *Server) handleReportPartial(w http.ResponseWriter, r *http.Request) {
	rep, err := s.reports.Report(r.Context(), ParseFilter(r.URL.Query()))
	if err != nil {
		s.reportFailure(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "report", newReportView(rep))
}

type (
	purposeJSON struct {
		Purpose     core.Purpose `json:"purpose"`
		AmountPaise int64        `json:"amount_paise"`
	}
	locationPurposeJSON struct {
		Location    string       `json:"location"`
		Purpose     core.Purpose `json:"purpose"`
		AmountPaise int64        `json:"amount_paise"`
	}
	dayJSON struct {
		Day         string `json:"day"`
		AmountPaise int64  `json:"amount_paise"`
	}
	geoJSON struct {
		Name        string       `json:"name"`
		AmountPaise int64        `json:"amount_paise"`
		Purpose     core.Purpose `json:"purpose"`
		Location    string       `json:"location"`
		Lat         float64      `json:"lat"`
		Lon         float64      `json:"lon"`
	}
	reportJSON struct {
		TotalRecords         int                   `json:"total_records"`
		Count                int                   `json:"count"`
		TotalPaise           int64                 `json:"total_paise"`
		UndatedRecords       int                   `json:"undated_records"`
		ByPurpose            []purposeJSON         `json:"by_purpose"`
		ByLocationAndPurpose []locationPurposeJSON `json:"by_location_and_purpose"`
		Trend                []dayJSON             `json:"trend"`
		TrendWarning         string                `json:"trend_warning,omitempty"`
		Geo                  []geoJSON             `json:"geo"`
	}
)

func toReportJSON(r core.Report) reportJSON {
	out := reportJSON{
		TotalRecords:         r.TotalRecords,
		Count:                r.Summary.Count,
		TotalPaise:           r.Summary.Total.Paise,
		UndatedRecords:       r.UndatedRecords,
		TrendWarning:         r.TrendWarning,
		ByPurpose:            make([]purposeJSON, 0, len(r.ByPurpose)),
		ByLocationAndPurpose: make([]locationPurposeJSON, 0, len(r.ByLocationAndPurpose)),
		Trend:                make([]dayJSON, 0, len(r.Trend)),
		Geo:                  make([]geoJSON, 0, len(r.Geo)),
	}
	for _, p := range r.ByPurpose {
		out.ByPurpose = append(out.ByPurpose, purposeJSON{Purpose: p.Purpose, AmountPaise: p.Amount.Paise})
	}
	for _, c := range r.ByLocationAndPurpose {
		out.ByLocationAndPurpose = append(out.ByLocationAndPurpose, locationPurposeJSON{
			Location: c.Location, Purpose: c.Purpose, AmountPaise: c.Amount.Paise,
		})
	}
	for _, d := range r.Trend {
		out.Trend = append(out.Trend, dayJSON{Day: d.Day.Format("2006-01-02"), AmountPaise: d.Amount.Paise})
	}
	for _, g := range r.Geo {
		out.Geo = append(out.Geo, geoJSON{
			Name: g.Name, AmountPaise: g.Amount.Paise, Purpose: g.Purpose,
			Location: g.Location, Lat: g.Lat, Lon: g.Lon,
		})
	}
	return out
}

func (s *Server) handleReportJSON(w http.ResponseWriter, r *http.Request) {
	rep, err := s.reports.Report(r.Context(), ParseFilter(r.URL.Query()))
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to build report",
			log.FieldOperation, log.OpReport, log.FieldError, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": reportErrorMessage})
		return
	}
	writeJSON(w, http.StatusOK, toReportJSON(rep))
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	s.handleExport(w, r, "csv", export.ContentTypeCSV, export.WriteCSV)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	s.handleExport(w, r, "xlsx", export.ContentTypeXLSX, export.WriteXLSX)
}

// handleExport sends nothing until the whole file has been built.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, ext, contentType string, write func(io.Writer, []core.Donation) error) {
	f := ParseFilter(r.URL.Query())
	records, err := s.donations.List(r.Context(), f)
	if err != nil {
		s.reportFailure(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, records); err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentExport).ErrorContext(r.Context(), "Export failed",
			log.FieldOperation, log.OpExport, "format", ext, log.FieldError, err)
		http.Error(w, "Export failed", http.StatusInternalServerError)
		return
	}

	s.metrics.exports.Add(1)
	filename := fmt.Sprintf("donations_%s.%s", time.Now().Format("20060102"), ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) reportFailure(w http.ResponseWriter, r *http.Request, err error) {
	log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to load donations",
		log.FieldOperation, log.OpLoad, log.FieldError, err)
	InternalServerError(reportErrorMessage).Write(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.started).String(),
	})
}

// handleReady checks that templates are loaded and the store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if err := s.donations.Ping(ctx); err != nil {
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	st := s.reports.Stats()
	checks["report_cache"] = map[string]any{"entries": st.Entries, "status": "ok"}
	checks["rate_limiter"] = map[string]any{"active_clients": s.limiter.ActiveClients(), "status": "ok"}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traceMetrics := s.tracer.GetMetrics()
	cacheStats := s.reports.Stats()
	activeSessions := 0
	if s.sessions != nil {
		activeSessions = s.sessions.Len()
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
		fmt.Fprintf(w, "%s %v\n\n", name, value)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_requests_in_flight", "gauge", "Requests currently being served", traceMetrics.InFlight)
	metric("http_client_errors_total", "counter", "Responses with a 4xx status", traceMetrics.ClientErrors)
	metric("http_server_errors_total", "counter", "Responses with a 5xx status", traceMetrics.ServerErrors)
	metric("http_response_time_avg_seconds", "gauge", "Mean response time", traceMetrics.AverageResponseTime.Seconds())
	metric("donations_created_total", "counter", "Donations recorded through the UI", s.metrics.donations.Load())
	metric("donation_validation_failures_total", "counter", "Submissions rejected for missing fields", s.metrics.validationFailures.Load())
	metric("donation_storage_failures_total", "counter", "Submissions that failed to persist", s.metrics.storageFailures.Load())
	metric("exports_total", "counter", "CSV and XLSX downloads", s.metrics.exports.Load())
	metric("report_cache_hits_total", "counter", "Report cache hits", cacheStats.Hits)
	metric("report_cache_misses_total", "counter", "Report cache misses", cacheStats.Misses)
	metric("report_cache_entries", "gauge", "Cached reports", cacheStats.Entries)
	metric("rate_limit_rejected_total", "counter", "Requests rejected by the rate limiter", s.limiter.Rejected())
	metric("rate_limit_active_clients", "gauge", "Clients tracked by the rate limiter", s.limiter.ActiveClients())
	metric("suspicious_requests_total", "counter", "Requests blocked as probes", s.detector.SuspiciousRequests())
	metric("active_sessions", "gauge", "Live login sessions", activeSessions)
	metric("uptime_seconds", "gauge", "Seconds since the server started", int64(time.Since(s.metrics.started).Seconds()))
}
