// Package http serves the JSON API of the finance books.
package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"finboard/internal/core"
	"finboard/internal/log"
	"finboard/internal/services"
)

// mutationsPerMinute is the per-client budget for non-GET requests.
const mutationsPerMinute = 60

type Server struct {
	http.Server
	books       services.Books
	logger      *log.Logger
	rateLimiter *rateLimiter
	started     time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, books services.Books, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		books:       books,
		logger:      logger,
		rateLimiter: newRateLimiter(mutationsPerMinute),
		started:     time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	const book = "/api/books/{book}"
	mux.HandleFunc("GET "+book+"/summary", s.withBook(s.handleSummary))
	mux.HandleFunc("POST "+book+"/sync", s.withBook(s.handleSync))

	mux.HandleFunc("GET "+book+"/transactions", s.withBook(s.handleListTransactions))
	mux.HandleFunc("GET "+book+"/transactions.csv", s.withBook(s.handleExportCSV))
	mux.HandleFunc("POST "+book+"/transactions", s.withBook(s.handleCreateExpense))
	mux.HandleFunc("PUT "+book+"/transactions/{id}", s.withBook(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE "+book+"/transactions/{id}", s.withBook(s.handleDeleteTransaction))
	mux.HandleFunc("GET "+book+"/transactions/{id}/share", s.withBook(s.handleShareTransaction))

	mux.HandleFunc("GET "+book+"/categories", s.withBook(s.handleListCategories))
	mux.HandleFunc("POST "+book+"/categories", s.withBook(s.handleCreateCategory))
	mux.HandleFunc("PUT "+book+"/categories/{label}", s.withBook(s.handleRenameCategory))
	mux.HandleFunc("DELETE "+book+"/categories/{label}", s.withBook(s.handleDeleteCategory))

	mux.HandleFunc("GET "+book+"/series", s.withBook(s.handleSeries))
	mux.HandleFunc("GET "+book+"/insights", s.withBook(s.handleInsights))
	mux.HandleFunc("GET "+book+"/forecast", s.withBook(s.handleForecast))

	mux.HandleFunc("GET "+book+"/recurring", s.withBook(s.handleListRecurring))
	mux.HandleFunc("POST "+book+"/recurring", s.withBook(s.handleCreateRule))
	mux.HandleFunc("PUT "+book+"/recurring/{id}", s.withBook(s.handleUpdateRule))
	mux.HandleFunc("DELETE "+book+"/recurring/{id}", s.withBook(s.handleDeleteRule))

	mux.HandleFunc("PUT "+book+"/budgets/{category}", s.withBook(s.handleSetBudget))
	mux.HandleFunc("POST "+book+"/goals/{id}/contributions", s.withBook(s.handleContribute))

	var h http.Handler = s.withSecurity(mux)
	h = log.AccessLog(h)
	h = log.RequestIDMiddleware(h)
	h = log.Middleware(logger)(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter cleanup and shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// withSecurity sets security headers, rejects probe requests and rate
// limits mutations per client.
func (s *Server) withSecurity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w.Header())
		logger := log.FromContext(r.Context())
		clientIP := extractClientIP(r)

		if isSuspicious(r) {
			logger.WarnContext(r.Context(), "Suspicious request rejected",
				log.FieldClientIP, clientIP, log.FieldPath, r.URL.Path)
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad request"})
			return
		}

		if r.Method != http.MethodGet && r.Method != http.MethodHead && !s.rateLimiter.allow(clientIP) {
			logger.WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, clientIP, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type bookHandler func(w http.ResponseWriter, r *http.Request, svc *services.BookService)

// withBook resolves the {book} path segment.
func (s *Server) withBook(h bookHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc, err := s.books.Get(r.PathValue("book"))
		if err != nil {
			writeError(w, r, "resolve_book", err)
			return
		}
		h(w, r, svc)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks that every book can be loaded from the store.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := make(map[string]string, len(s.books))
	for _, book := range []core.Book{core.Personal, core.Business} {
		svc, ok := s.books[book]
		if !ok {
			continue
		}
		if _, err := svc.Snapshot(ctx); err != nil {
			checks[string(book)] = fmt.Sprintf("failed: %v", err)
			status, code = "not_ready", http.StatusServiceUnavailable
			continue
		}
		checks[string(book)] = "ok"
	}
	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics reports a few counters in Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", s.rateLimiter.totalHits())

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", s.rateLimiter.activeClients())

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.started).Seconds())
}
