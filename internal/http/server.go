package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/analysis"
	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// Server is the JSON API surface over the category registry, the
// transaction ledger and the aggregation engine.
type Server struct {
	http.Server

	categories   *services.CategoryService
	transactions *services.TransactionService
	analysis     *analysis.Engine
	verifier     auth.Verifier

	// Aggregation results cached per user; any ledger or registry
	// mutation drops every entry for that user.
	summaryCache *cache.LRUCache[core.Summary]
	cacheManager *cache.Manager
	rateLimiter  *ratelimit.Limiter

	shutdownOnce sync.Once
}

// Config carries the server's tunables.
type Config struct {
	Addr      string
	CacheSize int
	CacheTTL  time.Duration
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, categories *services.CategoryService, transactions *services.TransactionService, engine *analysis.Engine, verifier auth.Verifier) *Server {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 256
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}

	s := &Server{
		categories:   categories,
		transactions: transactions,
		analysis:     engine,
		verifier:     verifier,
		summaryCache: cache.NewLRUCache[core.Summary](cfg.CacheSize, cfg.CacheTTL),
		cacheManager: cache.NewManager(),
		rateLimiter:  ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}
	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	api := http.NewServeMux()

	api.HandleFunc("POST /api/categories", s.handleCreateCategory)
	api.HandleFunc("GET /api/categories", s.handleListCategories)
	api.HandleFunc("GET /api/categories/{id}", s.handleGetCategory)
	api.HandleFunc("PUT /api/categories/{id}", s.handleUpdateCategory)
	api.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	api.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	api.HandleFunc("GET /api/transactions", s.handleListTransactions)
	api.HandleFunc("GET /api/transactions/totals", s.handleTotals)
	api.HandleFunc("GET /api/transactions/summary/monthly", s.handleMonthlySummary)
	api.HandleFunc("DELETE /api/transactions/all", s.handleDeleteAllTransactions)
	api.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	api.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	api.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	tracer := trace.NewMiddleware(extractClientIP)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.rateLimiter.Middleware(extractClientIP, s.handleRateLimited)

	var apiHandler http.Handler = s.withAuth(api)
	apiHandler = limit(apiHandler)
	apiHandler = headers.Middleware(apiHandler)
	apiHandler = tracer.Middleware(apiHandler)

	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Shutdown stops the background cleanup routines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
}

// extractClientIP resolves the caller's address, honoring proxy headers.
func extractClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
