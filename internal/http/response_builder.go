// Package http serves the donation tracker UI, its HTMX partials, exports
// and operational endpoints.
package http

import (
	"encoding/json"
	"html/template"
	"net/http"

	"donations/internal/core"
)

// Client-side events carried in HX-Trigger.
const (
	eventDonationCreated = "donation:created"
	eventReportRefresh   = "report:refresh"
	eventFormReset       = "form:reset"
	eventNotification    = "show-notification"
)

// NotificationType selects the toast style in app.js.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

const (
	successToastMs = 3000
	errorToastMs   = 5000
)

type notification struct {
	Type     NotificationType `json:"type"`
	Message  string           `json:"message"`
	Duration int              `json:"duration"`
}

type donationEvent struct {
	Purpose  core.Purpose `json:"purpose"`
	Location string       `json:"location"`
}

// HTMXResponseBuilder accumulates status, headers, HX-Trigger events and an
// HTML body, then writes them in one go.
type HTMXResponseBuilder struct {
	status   int
	header   http.Header
	triggers map[string]any
	body     string
}

func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		status:   http.StatusOK,
		header:   http.Header{},
		triggers: map[string]any{},
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.status = code
	return b
}

// Trigger adds an event to HX-Trigger. A nil payload is sent as {}.
func (b *HTMXResponseBuilder) Trigger(event string, payload any) *HTMXResponseBuilder {
	if payload == nil {
		payload = struct{}{}
	}
	b.triggers[event] = payload
	return b
}

// TriggerDonationCreated makes the report partial reload.
func (b *HTMXResponseBuilder) TriggerDonationCreated(purpose core.Purpose, location string) *HTMXResponseBuilder {
	return b.Trigger(eventDonationCreated, donationEvent{Purpose: purpose, Location: location})
}

func (b *HTMXResponseBuilder) TriggerReportRefresh() *HTMXResponseBuilder {
	return b.Trigger(eventReportRefresh, nil)
}

func (b *HTMXResponseBuilder) TriggerFormReset() *HTMXResponseBuilder {
	return b.Trigger(eventFormReset, nil)
}

func (b *HTMXResponseBuilder) TriggerNotification(kind NotificationType, message string, durationMs int) *HTMXResponseBuilder {
	return b.Trigger(eventNotification, notification{Type: kind, Message: message, Duration: durationMs})
}

func (b *HTMXResponseBuilder) TriggerSuccessNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationSuccess, message, successToastMs)
}

func (b *HTMXResponseBuilder) TriggerErrorNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationError, message, errorToastMs)
}

// Redirect makes htmx navigate the whole page instead of swapping.
func (b *HTMXResponseBuilder) Redirect(location string) *HTMXResponseBuilder {
	b.header.Set("HX-Redirect", location)
	return b
}

// BodyHTML sets a trusted HTML fragment as the body.
func (b *HTMXResponseBuilder) BodyHTML(html string) *HTMXResponseBuilder {
	b.header.Set("Content-Type", "text/html; charset=utf-8")
	b.body = html
	return b
}

func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	for name, values := range b.header {
		w.Header()[name] = values
	}
	if len(b.triggers) > 0 {
		if raw, err := json.Marshal(b.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(raw))
		}
	}
	w.WriteHeader(b.status)
	if b.body != "" {
		_, _ = w.Write([]byte(b.body))
	}
}

// ErrorResponse renders message, escaped, inside an error div.
func ErrorResponse(status int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(status).
		BodyHTML(`<div class="error">` + template.HTMLEscapeString(message) + `</div>`)
}

func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnprocessableEntityError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}
