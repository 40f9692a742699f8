package http

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"donations/internal/log"
	"donations/internal/middleware/ratelimit"
	"donations/internal/middleware/security"
	"donations/internal/middleware/trace"
	"donations/internal/services"
	"donations/internal/session"
	appweb "donations/web"
)

// Deps are the collaborators the server needs.
type Deps struct {
	Donations *services.DonationService
	Reports   *services.ReportService
	// Sessions enables the login gate; nil leaves every page open.
	Sessions *session.Store
	Logger   *log.Logger

	RateLimitPerMinute int
	TrustedProxies     []string
}

// appMetrics counts domain events for /metrics.
type appMetrics struct {
	started            time.Time
	donations          atomic.Int64
	validationFailures atomic.Int64
	storageFailures    atomic.Int64
	exports            atomic.Int64
}

type Server struct {
	http.Server
	templates *template.Template
	donations *services.DonationService
	reports   *services.ReportService
	sessions  *session.Store
	logger    *log.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	metrics  appMetrics

	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and wires routes and middleware.
func NewServer(addr string, deps Deps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.Config{Handler: slog.Default().Handler(), Component: log.ComponentHTTP})
	}

	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	detector := security.NewDetector()
	for _, cidr := range deps.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", cidr, err)
		}
	}

	s := &Server{
		templates: t,
		donations: deps.Donations,
		reports:   deps.Reports,
		sessions:  deps.Sessions,
		logger:    logger.WithComponent(log.ComponentHTTP),
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
		detector:  detector,
		tracer:    trace.NewMiddleware(),
	}
	s.metrics.started = time.Now()

	mux := http.NewServeMux()
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.HandleFunc("GET /{$}", s.requireAuth(s.handleIndex))
	mux.HandleFunc("POST /donations", s.requireAuth(s.handleCreateDonation))
	mux.HandleFunc("GET /ui/report", s.requireAuth(s.handleReportPartial))
	mux.HandleFunc("GET /api/report", s.requireAuth(s.handleReportJSON))
	mux.HandleFunc("GET /export.csv", s.requireAuth(s.handleExportCSV))
	mux.HandleFunc("GET /export.xlsx", s.requireAuth(s.handleExportXLSX))

	var h http.Handler = mux
	h = s.withSession(h)
	h = s.limiter.Middleware(s.detector.ExtractClientIP, func(r *http.Request) bool {
		return r.Method == http.MethodPost
	})(h)
	h = s.detector.Middleware(h)
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = log.Middleware(s.logger, trace.RequestID, s.detector.ExtractClientIP)(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// Shutdown stops background work and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// render executes a named template into a buffer first so a failing
// template never leaves a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template render failed",
			log.FieldOperation, log.OpRender, "template", name, log.FieldError, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
