package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"donations/internal/core"
	"donations/internal/log"
	"donations/internal/services"
	"donations/internal/session"
	"donations/internal/storage/memory"
)

var day = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func sampleDonations() []core.Donation {
	return []core.Donation{
		{Name: "Asha", Amount: core.Rupees(500), Purpose: core.PurposeEducation, Location: "Delhi", Date: day},
		{Name: "Ravi", Amount: core.Rupees(200), Purpose: core.PurposeHealth, Location: "Mumbai", Date: day.AddDate(0, 0, 1)},
		{Name: "Meera", Amount: core.Rupees(300), Purpose: core.PurposeEducation, Location: "Mumbai", Date: day.AddDate(0, 0, 1)},
		{Name: "Kiran", Amount: core.Rupees(50), Purpose: core.PurposeFood, Location: "Jaipur"},
	}
}

type testEnv struct {
	srv      *Server
	store    *memory.Store
	sessions *session.Store
}

func newTestEnv(t *testing.T, auth bool, seed ...core.Donation) *testEnv {
	t.Helper()
	store := memory.New(seed...)
	reports := services.NewReportService(store, time.Minute)
	donations := services.NewDonationService(store, services.WithReportCache(reports))

	deps := Deps{
		Donations: donations,
		Reports:   reports,
		Logger:    log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil), Component: log.ComponentHTTP}),
	}
	env := &testEnv{store: store}
	if auth {
		env.sessions = session.NewStore(session.Gate{Username: "admin", Password: "secret"})
		deps.Sessions = env.sessions
	}

	srv, err := NewServer(":0", deps)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	env.srv = srv
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	req.RemoteAddr = "192.0.2.10:4321"
	w := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(w, req)
	return w
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestServer_RequiresLogin(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login" {
		t.Errorf("GET / = %d %q, want redirect to /login", w.Code, w.Header().Get("Location"))
	}

	req := httptest.NewRequest(http.MethodGet, "/ui/report", nil)
	req.Header.Set("HX-Request", "true")
	w = env.do(req)
	if w.Code != http.StatusUnauthorized || w.Header().Get("HX-Redirect") != "/login" {
		t.Errorf("htmx GET /ui/report = %d %q, want 401 with HX-Redirect", w.Code, w.Header().Get("HX-Redirect"))
	}

	w = env.do(postForm("/donations", url.Values{"name": {"Asha"}}))
	if w.Code != http.StatusSeeOther {
		t.Errorf("POST /donations = %d, want redirect", w.Code)
	}
	if env.store.Len() != 0 {
		t.Error("anonymous POST must not record a donation")
	}

	for _, path := range []string{"/login", "/healthz", "/static/style.css"} {
		if w := env.do(httptest.NewRequest(http.MethodGet, path, nil)); w.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200 without login", path, w.Code)
		}
	}
}

func TestServer_LoginFlow(t *testing.T) {
	env := newTestEnv(t, true, sampleDonations()...)

	w := env.do(postForm("/login", url.Values{"username": {"admin"}, "password": {"wrong"}}))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login = %d, want 401", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid username or password.") {
		t.Error("bad login should explain the failure")
	}

	w = env.do(postForm("/login", url.Values{"username": {"admin"}, "password": {"secret"}}))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("good login = %d, want 303", w.Code)
	}
	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie {
			cookie = c
		}
	}
	if cookie == nil || !cookie.HttpOnly {
		t.Fatalf("session cookie = %+v, want HttpOnly cookie", cookie)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	w = env.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET / with session = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"NGO Donation Tracker", "admin", "Asha", "Donations by Purpose"} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}

	req = httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookie)
	if w := env.do(req); w.Code != http.StatusSeeOther {
		t.Errorf("logout = %d", w.Code)
	}
	if env.sessions.Len() != 0 {
		t.Error("logout should drop the session")
	}
}

func TestServer_CreateDonation(t *testing.T) {
	tests := []struct {
		name       string
		form       url.Values
		wantStatus int
		wantBody   string
		wantLen    int
	}{
		{
			name:       "valid",
			form:       url.Values{"name": {"Asha"}, "amount": {"250"}, "purpose": {"Education"}, "location": {"Delhi"}},
			wantStatus: http.StatusOK,
			wantBody:   "Donation added successfully!",
			wantLen:    1,
		},
		{
			name:       "blank name",
			form:       url.Values{"name": {"   "}, "amount": {"250"}, "purpose": {"Education"}, "location": {"Delhi"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "Please fill all the fields.",
		},
		{
			name:       "amount below minimum",
			form:       url.Values{"name": {"Asha"}, "amount": {"0.50"}, "purpose": {"Food"}, "location": {"Delhi"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "Please fill all the fields.",
		},
		{
			name:       "unknown purpose",
			form:       url.Values{"name": {"Asha"}, "amount": {"10"}, "purpose": {"Travel"}, "location": {"Delhi"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "Please fill all the fields.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, false)
			w := env.do(postForm("/donations", tt.form))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
			if env.store.Len() != tt.wantLen {
				t.Errorf("stored = %d, want %d", env.store.Len(), tt.wantLen)
			}
		})
	}
}

func TestServer_CreateDonationTriggers(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(postForm("/donations", url.Values{
		"name": {"Ravi"}, "amount": {"99.5"}, "purpose": {"health"}, "location": {"Mumbai"},
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var triggers map[string]json.RawMessage
	if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &triggers); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v", err)
	}
	for _, name := range []string{"donation:created", "form:reset", "show-notification"} {
		if _, ok := triggers[name]; !ok {
			t.Errorf("missing trigger %q", name)
		}
	}

	// The next report reflects the new record rather than a cached one.
	w = env.do(httptest.NewRequest(http.MethodGet, "/api/report", nil))
	var rep reportJSON
	if err := json.Unmarshal(w.Body.Bytes(), &rep); err != nil {
		t.Fatal(err)
	}
	if rep.Count != 1 || rep.TotalPaise != 9950 {
		t.Errorf("report = %+v, want one donation of 9950 paise", rep)
	}
}

func TestServer_ReportPartial(t *testing.T) {
	t.Run("empty log", func(t *testing.T) {
		env := newTestEnv(t, false)
		w := env.do(httptest.NewRequest(http.MethodGet, "/ui/report", nil))
		if !strings.Contains(w.Body.String(), "No donations recorded yet.") {
			t.Errorf("body = %s", w.Body.String())
		}
	})

	t.Run("filter excludes everything", func(t *testing.T) {
		env := newTestEnv(t, false, sampleDonations()...)
		w := env.do(httptest.NewRequest(http.MethodGet, "/ui/report?location=Chennai", nil))
		if !strings.Contains(w.Body.String(), "No data to display in charts. Try adjusting the filters.") {
			t.Errorf("body = %s", w.Body.String())
		}
	})

	t.Run("filtered charts", func(t *testing.T) {
		env := newTestEnv(t, false, sampleDonations()...)
		w := env.do(httptest.NewRequest(http.MethodGet, "/ui/report?location=Mumbai&purpose=Education", nil))
		body := w.Body.String()
		if !strings.Contains(body, "Meera") || strings.Contains(body, "Ravi") {
			t.Error("records table should follow the filter")
		}
		if !strings.Contains(body, "/export.csv?location=Mumbai&amp;purpose=Education") {
			t.Error("export link should carry the filter")
		}
		if !strings.Contains(body, "<svg") {
			t.Error("expected SVG charts")
		}
	})

	t.Run("undated records only", func(t *testing.T) {
		env := newTestEnv(t, false, core.Donation{Name: "Kiran", Amount: core.Rupees(50), Purpose: core.PurposeFood, Location: "Delhi"})
		w := env.do(httptest.NewRequest(http.MethodGet, "/ui/report", nil))
		if !strings.Contains(w.Body.String(), "daily trend unavailable") {
			t.Errorf("expected trend warning, body = %s", w.Body.String())
		}
	})
}

func TestServer_ReportJSON(t *testing.T) {
	env := newTestEnv(t, false, sampleDonations()...)
	w := env.do(httptest.NewRequest(http.MethodGet, "/api/report?purpose=Education", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var rep reportJSON
	if err := json.Unmarshal(w.Body.Bytes(), &rep); err != nil {
		t.Fatal(err)
	}
	if rep.TotalRecords != 4 || rep.Count != 2 || rep.TotalPaise != 80000 {
		t.Errorf("summary = %+v", rep)
	}
	if len(rep.ByPurpose) != 1 || rep.ByPurpose[0].Purpose != core.PurposeEducation {
		t.Errorf("by_purpose = %+v", rep.ByPurpose)
	}
	if len(rep.Trend) != 2 || rep.Trend[0].Day != "2024-03-01" {
		t.Errorf("trend = %+v", rep.Trend)
	}
	if len(rep.Geo) != 2 {
		t.Errorf("geo = %+v", rep.Geo)
	}
}

func TestServer_Exports(t *testing.T) {
	env := newTestEnv(t, false, sampleDonations()...)

	w := env.do(httptest.NewRequest(http.MethodGet, "/export.csv?location=Delhi", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("csv status = %d", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv") {
		t.Errorf("Content-Type = %q", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "attachment") {
		t.Errorf("Content-Disposition = %q", w.Header().Get("Content-Disposition"))
	}
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 2 || strings.TrimSpace(lines[0]) != "Name,Amount,Purpose,Location,Date" {
		t.Errorf("csv = %q", w.Body.String())
	}

	w = env.do(httptest.NewRequest(http.MethodGet, "/export.xlsx", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("xlsx status = %d", w.Code)
	}
	f, err := excelize.OpenReader(w.Body)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Donations")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 5 {
		t.Errorf("rows = %d, want header plus 4", len(rows))
	}
}

func TestServer_OpsEndpoints(t *testing.T) {
	env := newTestEnv(t, false)
	env.do(postForm("/donations", url.Values{"name": {"Asha"}, "amount": {"10"}, "purpose": {"Food"}, "location": {"Pune"}}))

	w := env.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Errorf("readyz = %d: %s", w.Code, w.Body.String())
	}

	w = env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	for _, want := range []string{"# TYPE http_requests_total counter", "donations_created_total 1", "active_sessions 0"} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestServer_SecurityMiddleware(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("security headers not applied")
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("request id not set")
	}

	if w := env.do(httptest.NewRequest(http.MethodGet, "/.env", nil)); w.Code != http.StatusNotFound {
		t.Errorf("probe = %d, want 404", w.Code)
	}
}
