// Package http exposes the tracker as a JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fintrack/internal/currency"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 64 << 10

// Deps are the collaborators the handlers serve from.
type Deps struct {
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	Stats        *services.StatsService
	Currency     *currency.Service
	Logger       *log.Logger

	// RateLimitPerMinute bounds writes per client; zero uses the limiter default.
	RateLimitPerMinute int
	// Now is the clock handlers validate against; nil means time.Now.
	Now func() time.Time
}

// Server is an http.Server with the tracker routes mounted.
type Server struct {
	http.Server

	txns     *services.TransactionService
	budgets  *services.BudgetService
	stats    *services.StatsService
	currency *currency.Service
	now      func() time.Time

	tracer       *trace.Middleware
	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	resolver := security.NewClientIPResolver()
	s := &Server{
		txns:     deps.Transactions,
		budgets:  deps.Budgets,
		stats:    deps.Stats,
		currency: deps.Currency,
		now:      now,
		tracer:   trace.NewMiddleware(resolver.ClientIP),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.tracer.Middleware)
	r.Use(log.Middleware(logger, log.ComponentHTTP))
	r.Use(log.RequestIDMiddleware(trace.RequestID))
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(s.limiter.Middleware(resolver.ClientIP, ratelimit.Writes, s.handleRateLimited))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "route not found", "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed", "")
	})

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleListTransactions)
			r.Post("/", s.handleCreateTransaction)
			r.Get("/search", s.handleSearchTransactions)
			r.Get("/{id}", s.handleGetTransaction)
			r.Put("/{id}", s.handleUpdateTransaction)
			r.Delete("/{id}", s.handleDeleteTransaction)
		})

		r.Get("/budget", s.handleGetBudget)
		r.Post("/budget", s.handleCreateBudget)
		r.Delete("/budget", s.handleDeleteBudget)

		r.Get("/stats", s.handleStats)
		r.Get("/report", s.handleReport)

		r.Get("/currency", s.handleGetCurrency)
		r.Put("/currency", s.handleSetCurrency)
		r.Get("/amounts", s.handleAmounts)
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Shutdown stops the limiter cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

type healthResponse struct {
	Status        string `json:"status"`
	Currency      string `json:"currency"`
	TotalRequests int64  `json:"totalRequests"`
	RateLimited   int64  `json:"rateLimited"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		Currency:      string(s.currency.Current()),
		TotalRequests: s.tracer.GetMetrics().TotalRequests,
		RateLimited:   s.limiter.GetMetrics().Rejected,
	})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	slog.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldComponent, log.ComponentHTTP,
		log.FieldRequestID, trace.RequestID(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded, try again later", "")
}
