// Package http serves the ledger UI and its HTMX endpoints. Handlers parse
// forms, call the service layer, and answer with HTML fragments plus
// HX-Trigger headers; domain errors map onto 422/403/404 responses.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"nummus/internal/core"
	"nummus/internal/ledger"
	"nummus/internal/storage"
	appweb "nummus/web"
)

// Service interfaces consumed by the handlers. Declared here so tests can
// substitute fakes without a database.
type (
	AccountService interface {
		Create(ctx context.Context, a core.Account) (int64, error)
		Get(ctx context.Context, id int64) (core.Account, error)
		List(ctx context.Context) ([]core.Account, error)
		Update(ctx context.Context, id int64, name, institution string) error
		Close(ctx context.Context, id int64) error
		Reopen(ctx context.Context, id int64) error
	}

	TransactionService interface {
		Create(ctx context.Context, t core.Transaction) (int64, error)
		Get(ctx context.Context, id int64) (core.Transaction, error)
		List(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error)
		Update(ctx context.Context, t core.Transaction) error
		Delete(ctx context.Context, id int64) error
	}

	CategoryService interface {
		Create(ctx context.Context, c core.TransactionCategory) (int64, error)
		List(ctx context.Context) ([]core.TransactionCategory, error)
		Rename(ctx context.Context, id int64, name string, essential bool) error
		Delete(ctx context.Context, id int64) error
	}

	AssetService interface {
		Create(ctx context.Context, a core.Asset) (int64, error)
		List(ctx context.Context) ([]core.Asset, error)
		RecordValuation(ctx context.Context, v core.AssetValuation) error
	}

	BudgetService interface {
		Assign(ctx context.Context, b core.BudgetAssignment) error
		Month(ctx context.Context, month string) ([]storage.BudgetRow, error)
	}

	ReportService interface {
		Balances(ctx context.Context) (map[int64]core.Money, error)
		NetWorthSeries(ctx context.Context, from, to core.Date) ([]ledger.Point, error)
		EmergencyFund(ctx context.Context, months int) (ledger.Coverage, error)
		Allocation(ctx context.Context) (ledger.AllocationReport, error)
		EssentialSpendByMonth(ctx context.Context, monthsBack int) ([]ledger.MonthSpend, error)
		Invalidate()
	}
)

type Server struct {
	http.Server
	templates *template.Template

	accounts     AccountService
	transactions TransactionService
	categories   CategoryService
	assets       AssetService
	budget       BudgetService
	reports      ReportService

	emergencyFundMonths int

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// Services bundles the handler dependencies.
type Services struct {
	Accounts     AccountService
	Transactions TransactionService
	Categories   CategoryService
	Assets       AssetService
	Budget       BudgetService
	Reports      ReportService
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, svcs Services, emergencyFundMonths int) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		accounts:            svcs.Accounts,
		transactions:        svcs.Transactions,
		categories:          svcs.Categories,
		assets:              svcs.Assets,
		budget:              svcs.Budget,
		reports:             svcs.Reports,
		emergencyFundMonths: emergencyFundMonths,
		rateLimiter:         newRateLimiter(),
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/", s.withSecurityHeaders(s.handleIndex))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/accounts", s.withSecurityHeaders(s.handleAccounts))
	mux.HandleFunc("/accounts/update", s.withSecurityHeaders(s.handleUpdateAccount))
	mux.HandleFunc("/accounts/close", s.withSecurityHeaders(s.handleCloseAccount))
	mux.HandleFunc("/accounts/reopen", s.withSecurityHeaders(s.handleReopenAccount))

	mux.HandleFunc("/transactions", s.withSecurityHeaders(s.handleTransactions))
	mux.HandleFunc("/transactions/update", s.withSecurityHeaders(s.handleUpdateTransaction))
	mux.HandleFunc("/transactions/delete", s.withSecurityHeaders(s.handleDeleteTransaction))

	mux.HandleFunc("/categories", s.withSecurityHeaders(s.handleCategories))
	mux.HandleFunc("/categories/rename", s.withSecurityHeaders(s.handleRenameCategory))
	mux.HandleFunc("/categories/delete", s.withSecurityHeaders(s.handleDeleteCategory))

	mux.HandleFunc("/assets", s.withSecurityHeaders(s.handleAssets))
	mux.HandleFunc("/assets/valuations", s.withSecurityHeaders(s.handleRecordValuation))

	mux.HandleFunc("/budget", s.withSecurityHeaders(s.handleBudget))

	// UI partials
	mux.HandleFunc("/ui/net-worth", s.withSecurityHeaders(s.handleNetWorth))
	mux.HandleFunc("/ui/emergency-fund", s.withSecurityHeaders(s.handleEmergencyFund))
	mux.HandleFunc("/ui/allocation", s.withSecurityHeaders(s.handleAllocation))
	mux.HandleFunc("/ui/essential-spend", s.withSecurityHeaders(s.handleEssentialSpend))

	return s
}

// Shutdown stops the rate limiter's cleanup goroutine and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging around a handler.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter captures the status code for request logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		NotFoundError("Page not found").Write(w)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	cats, err := s.categories.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Category list error", "error", err)
	}
	accounts, err := s.accounts.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Account list error", "error", err)
	}

	data := struct {
		Today      string
		Month      string
		Accounts   []core.Account
		Categories []core.TransactionCategory
	}{
		Today:      core.Today().String(),
		Month:      core.Today().MonthKey(),
		Accounts:   accounts,
		Categories: cats,
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
