package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

// Deps carries everything the server needs. Exchanger may be nil when
// running with static auth.
type Deps struct {
	Resolver  auth.Resolver
	Exchanger *auth.Exchanger
	Expenses  *services.ExpenseService
	Budgets   *services.BudgetService
	Registry  *services.RegistryService
	Reminders *services.ReminderService
	Reports   *services.ReportService

	Logger      *applog.Logger
	CORSOrigins []string
	CacheSize   int
	CacheTTL    time.Duration
}

type Server struct {
	http.Server

	resolver  auth.Resolver
	exchanger *auth.Exchanger
	expenses  *services.ExpenseService
	budgets   *services.BudgetService
	registry  *services.RegistryService
	reminders *services.ReminderService
	reports   *services.ReportService

	logger  *applog.Logger
	origins map[string]bool

	// reportCache holds marshaled report responses keyed by
	// "userID|report|arg"; any write under a user drops the user's prefix.
	reportCache  *cache.LRUCache[[]byte]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	origins := make(map[string]bool, len(deps.CORSOrigins))
	for _, o := range deps.CORSOrigins {
		origins[o] = true
	}

	cacheSize := deps.CacheSize
	if cacheSize <= 0 {
		cacheSize = 256
	}
	cacheTTL := deps.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		resolver:     deps.Resolver,
		exchanger:    deps.Exchanger,
		expenses:     deps.Expenses,
		budgets:      deps.Budgets,
		registry:     deps.Registry,
		reminders:    deps.Reminders,
		reports:      deps.Reports,
		logger:       deps.Logger.WithComponent(applog.ComponentHTTP),
		origins:      origins,
		reportCache:  cache.NewLRUCache[[]byte](cacheSize, cacheTTL),
		cacheManager: cache.NewManager(deps.Logger.Logger),
	}

	s.cacheManager.Register("reports", s.reportCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	// CORS preflight for the whole API surface.
	mux.HandleFunc("OPTIONS /api/", s.wrap(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	mux.HandleFunc("POST /api/auth/session", s.wrap(s.handleExchangeSession))
	mux.HandleFunc("GET /api/auth/me", s.authed(s.handleMe))
	mux.HandleFunc("POST /api/auth/logout", s.wrap(s.handleLogout))

	mux.HandleFunc("POST /api/expenses", s.authed(s.handleCreateExpense))
	mux.HandleFunc("GET /api/expenses", s.authed(s.handleListExpenses))
	mux.HandleFunc("POST /api/expenses/bulk", s.authed(s.handleBulkImport))
	mux.HandleFunc("GET /api/expenses/summary/stats", s.authed(s.handleSummaryStats))
	mux.HandleFunc("GET /api/expenses/summary/by-category", s.authed(s.handleByCategory))
	mux.HandleFunc("GET /api/expenses/summary/monthly-trend", s.authed(s.handleMonthlyTrend))
	mux.HandleFunc("GET /api/expenses/{id}", s.authed(s.handleGetExpense))
	mux.HandleFunc("PUT /api/expenses/{id}", s.authed(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.authed(s.handleDeleteExpense))

	mux.HandleFunc("POST /api/budgets", s.authed(s.handleCreateBudget))
	mux.HandleFunc("GET /api/budgets", s.authed(s.handleListBudgets))
	mux.HandleFunc("GET /api/budgets/alerts", s.authed(s.handleBudgetAlerts))
	mux.HandleFunc("PUT /api/budgets/{id}", s.authed(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /api/budgets/{id}", s.authed(s.handleDeleteBudget))

	mux.HandleFunc("GET /api/categories", s.authed(s.handleListNames(core.DimensionCategory)))
	mux.HandleFunc("POST /api/categories", s.authed(s.handleCreateName(core.DimensionCategory)))
	mux.HandleFunc("DELETE /api/categories/{id}", s.authed(s.handleDeleteName(core.DimensionCategory)))
	mux.HandleFunc("GET /api/paidby", s.authed(s.handleListNames(core.DimensionPaidBy)))
	mux.HandleFunc("POST /api/paidby", s.authed(s.handleCreateName(core.DimensionPaidBy)))
	mux.HandleFunc("DELETE /api/paidby/{id}", s.authed(s.handleDeleteName(core.DimensionPaidBy)))

	mux.HandleFunc("POST /api/reminders", s.authed(s.handleCreateReminder))
	mux.HandleFunc("GET /api/reminders", s.authed(s.handleListReminders))
	mux.HandleFunc("GET /api/reminders/due", s.authed(s.handleDueReminders))
	mux.HandleFunc("GET /api/reminders/{id}", s.authed(s.handleGetReminder))
	mux.HandleFunc("PUT /api/reminders/{id}", s.authed(s.handleUpdateReminder))
	mux.HandleFunc("DELETE /api/reminders/{id}", s.authed(s.handleDeleteReminder))
	mux.HandleFunc("POST /api/reminders/{id}/execute", s.authed(s.handleExecuteReminder))
	mux.HandleFunc("GET /api/reminders/{id}/executions", s.authed(s.handleReminderHistory))

	return s
}

// Shutdown stops the cache cleanup goroutine and shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// wrap applies trace logging and CORS headers.
func (s *Server) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := generateRequestID()
		logger := s.logger.With(applog.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), applog.LoggerContextKey, logger)
		r = r.WithContext(ctx)

		s.applyCORS(w, r)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		logger.InfoContext(ctx, "request completed",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldClientIP, clientIP(r),
		)
	}
}

// authed wraps a handler that requires a resolved user.
func (s *Server) authed(next func(http.ResponseWriter, *http.Request, core.User)) http.HandlerFunc {
	return s.wrap(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.resolver.Resolve(r.Context(), sessionToken(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		next(w, r, user)
	})
}

func (s *Server) applyCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" || !s.origins[origin] {
		return
	}
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Credentials", "true")
	h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	h.Set("Vary", "Origin")
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

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
