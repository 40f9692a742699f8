package http

import (
	"net/http"
	"net/url"
	"strings"

	"donations/internal/core"
)

// Query and form keys shared by the templates and handlers.
const (
	paramLocation = "location"
	paramPurpose  = "purpose"
	paramName     = "name"
	paramAmount   = "amount"
)

// ParseFilter reads the report filter from query parameters. Location and
// purpose repeat; an absent key means no constraint. Unknown purposes are
// dropped rather than rejected.
func ParseFilter(query url.Values) core.Filter {
	var f core.Filter
	for _, loc := range query[paramLocation] {
		if loc = sanitizeInput(loc); loc != "" {
			f.Locations = append(f.Locations, loc)
		}
	}
	for _, raw := range query[paramPurpose] {
		if p, err := core.ParsePurpose(raw); err == nil {
			f.Purposes = append(f.Purposes, p)
		}
	}
	f.Name = sanitizeInput(query.Get(paramName))
	return f
}

// FilterQuery encodes f so links (exports, partial reloads) keep the
// current selection.
func FilterQuery(f core.Filter) string {
	v := url.Values{}
	for _, loc := range f.Locations {
		v.Add(paramLocation, loc)
	}
	for _, p := range f.Purposes {
		v.Add(paramPurpose, string(p))
	}
	if f.Name != "" {
		v.Set(paramName, f.Name)
	}
	return v.Encode()
}

// ParseDonationForm maps the submitted form onto a DonationInput. Values
// that fail to parse are left zero so validation reports them with the
// other missing fields.
func ParseDonationForm(form url.Values) core.DonationInput {
	in := core.DonationInput{
		Name:     sanitizeInput(form.Get(paramName)),
		Location: sanitizeInput(form.Get(paramLocation)),
	}
	if amt, err := core.ParseAmount(form.Get(paramAmount)); err == nil {
		in.Amount = amt
	}
	if p, err := core.ParsePurpose(form.Get(paramPurpose)); err == nil {
		in.Purpose = p
	}
	return in
}

// ParseFormOrFail parses the request form and writes a 400 on failure.
func ParseFormOrFail(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid form data").Write(w)
		return false
	}
	return true
}

// isHTMX reports whether the request came from htmx.
func isHTMX(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("HX-Request"), "true")
}
