// Package http serves the expense screen, the add form and a JSON snapshot.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"iexpense/internal/core"
	"iexpense/internal/log"
	"iexpense/internal/view"
	appweb "iexpense/web"
)

type (
	// ExpenseStore is the part of the store the handlers use.
	ExpenseStore interface {
		Add(ctx context.Context, name string, category core.Category, amount core.Money) (core.ExpenseRecord, error)
		Items() []core.ExpenseRecord
	}

	// SectionView renders and edits the per-category sections.
	SectionView interface {
		Sections() []view.Section
		DeleteTargets(ctx context.Context, c core.Category, targets []view.Target) []core.ExpenseRecord
	}

	// ReadinessCheck reports whether a dependency can serve requests.
	ReadinessCheck func(ctx context.Context) error
)

type Server struct {
	http.Server
	templates   *template.Template
	store       ExpenseStore
	sections    SectionView
	formatter   *view.AmountFormatter
	logger      *log.Logger
	ready       ReadinessCheck
	rateLimiter *rateLimiter
	security    *securityMetrics
	appMetrics  *appMetrics

	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime          time.Time
	expensesCreated int64
	expensesDeleted int64
}

// Option customizes a Server.
type Option func(*Server)

// WithReadinessCheck makes /readyz report the result of check.
func WithReadinessCheck(check ReadinessCheck) Option {
	return func(s *Server) { s.ready = check }
}

// WithRateLimit sets how many POST requests per minute a client may send.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) { s.rateLimiter.limit = perMinute }
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, store ExpenseStore, sections SectionView, formatter *view.AmountFormatter, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	if formatter == nil {
		formatter = view.MustAmountFormatter("USD", "en")
	}
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		store:       store,
		sections:    sections,
		formatter:   formatter,
		logger:      logger.WithComponent(log.ComponentHTTP),
		rateLimiter: newRateLimiter(),
		security:    &securityMetrics{},
		appMetrics:  &appMetrics{uptime: time.Now()},
	}
	for _, opt := range opts {
		opt(s)
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Error("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/{$}", s.withSecurityHeaders(s.handleIndex))
	mux.HandleFunc("/expenses/new", s.withSecurityHeaders(s.handleNewExpenseForm))
	mux.HandleFunc("/expenses", s.withSecurityHeaders(s.handleCreateExpense))
	mux.HandleFunc("/expenses/delete", s.withSecurityHeaders(s.handleDeleteExpenses))
	mux.HandleFunc("/api/expenses", s.withSecurityHeaders(s.handleListExpenses))
	mux.HandleFunc("/", s.withSecurityHeaders(s.handleNotFound))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request logging to responses
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		reqLogger := s.logger.With(log.FieldRequestID, requestID)
		ctx := log.NewContext(r.Context(), reqLogger)
		r = r.WithContext(ctx)

		reqLogger.DebugContext(ctx, "Request started",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP,
			log.FieldUserAgent, r.Header.Get("User-Agent"))

		if reason := detectSuspiciousRequest(r, s.security); reason != "" {
			reqLogger.WarnContext(ctx, "Suspicious request", "reason", reason,
				log.FieldMethod, r.Method, log.FieldPath, r.URL.Path, log.FieldClientIP, clientIP)
		}

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP, s.security) {
			reqLogger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com 'unsafe-eval'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		reqLogger.InfoContext(ctx, "Request completed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
