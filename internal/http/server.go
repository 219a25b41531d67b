package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"aura/internal/auth"
	"aura/internal/log"
	"aura/internal/middleware/ratelimit"
	"aura/internal/middleware/security"
	"aura/internal/middleware/trace"
	"aura/internal/services"
)

// Pinger is checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the application services the API exposes.
type Services struct {
	Auth         *services.AuthService
	Banks        *services.BankService
	Transactions *services.TransactionService
	Bills        *services.BillService
	Dashboard    *services.DashboardService
	Layouts      *services.LayoutService
}

// Config holds the server settings.
type Config struct {
	Addr           string
	RateLimitRPM   int
	TrustedProxies []string
	Sealer         *auth.Sealer
	Store          Pinger
}

type Server struct {
	http.Server

	svc      Services
	sealer   *auth.Sealer
	store    Pinger
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Tracer
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer wires the middleware chain and every route.
func NewServer(cfg Config, svc Services, logger *log.Logger) (*Server, error) {
	detector := security.NewDetector()
	for _, cidr := range cfg.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}

	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		svc:      svc,
		sealer:   cfg.Sealer,
		store:    cfg.Store,
		logger:   logger.WithComponent(log.ComponentHTTP),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitRPM}),
		detector: detector,
		started:  time.Now(),
	}
	s.tracer = trace.New(logger, detector.ExtractClientIP)
	s.Handler = s.routes()
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.tracer.Middleware)
	r.Use(s.recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware(s.logger))
	r.Use(chimw.CleanPath)
	r.Use(s.limitMutations)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, errorf(http.StatusNotFound, "not_found", "no route for %s", r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, errorf(http.StatusMethodNotAllowed, "method_not_allowed", "%s not allowed", r.Method))
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimw.AllowContentType("application/json"))

		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.sealer, s.unauthorized))

			r.Get("/auth/me", s.handleMe)

			r.Route("/banks", func(r chi.Router) {
				r.Get("/", s.handleListBanks)
				r.Post("/", s.handleCreateBank)
				r.Route("/{bankID}", func(r chi.Router) {
					r.Get("/", s.handleGetBank)
					r.Put("/", s.handleUpdateBank)
					r.Delete("/", s.handleDeleteBank)
					r.Get("/accounts", s.handleListBankAccounts)
					r.Post("/accounts", s.handleCreateAccount)
				})
			})
			r.Route("/accounts", func(r chi.Router) {
				r.Get("/", s.handleListAccounts)
				r.Get("/{accountID}", s.handleGetAccount)
				r.Put("/{accountID}", s.handleUpdateAccount)
				r.Delete("/{accountID}", s.handleDeleteAccount)
			})
			r.Get("/balances", s.handleBalances)

			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", s.handleListTransactions)
				r.Post("/", s.handleCreateTransaction)
				r.Get("/{transactionID}", s.handleGetTransaction)
				r.Put("/{transactionID}", s.handleUpdateTransaction)
				r.Delete("/{transactionID}", s.handleDeleteTransaction)
			})

			r.Route("/bills", func(r chi.Router) {
				r.Get("/", s.handleListBills)
				r.Post("/", s.handleCreateBill)
				r.Get("/calendar", s.handleBillCalendar)
				r.Get("/upcoming", s.handleUpcomingBills)
				r.Get("/{billID}", s.handleGetBill)
				r.Put("/{billID}", s.handleUpdateBill)
				r.Delete("/{billID}", s.handleDeleteBill)
				r.Post("/{billID}/pay", s.handlePayBill)
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/", s.handleDashboard)
				r.Get("/summary", s.handleSummary)
				r.Get("/insights", s.handleInsights)
			})

			r.Route("/layout", func(r chi.Router) {
				r.Get("/", s.handleGetLayout)
				r.Post("/reorder", s.handleReorder)
				r.Put("/grid", s.handleSetGrid)
				r.Post("/reset", s.handleResetLayout)
				r.Get("/export", s.handleExportLayout)
				r.Post("/import", s.handleImportLayout)
				r.Route("/widgets/{widgetID}", func(r chi.Router) {
					r.Post("/resize", s.handleResize)
					r.Post("/toggle", s.handleToggle)
					r.Get("/config", s.handleGetWidgetConfig)
					r.Patch("/config", s.handleUpdateWidgetConfig)
				})
			})
		})
	})
	return r
}

// limitMutations applies the rate limiter to requests that change state.
func (s *Server) limitMutations(next http.Handler) http.Handler {
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, s.rateLimited)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
		default:
			limited.ServeHTTP(w, r)
		}
	})
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	writeError(w, r, errorf(http.StatusTooManyRequests, "rate_limited", "too many requests, try again later"))
}

func (s *Server) unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, err)
}

// recoverer turns a handler panic into a logged 500.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.FromContext(r.Context()).ErrorContext(r.Context(), "Handler panic", "panic", rec, log.FieldPath, r.URL.Path)
				writeError(w, r, errorf(http.StatusInternalServerError, "internal", "internal error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"uptime":     time.Since(s.started).Round(time.Second).String(),
		"requests":   s.tracer.Stats(),
		"rateLimit":  s.limiter.Stats(),
		"suspicious": s.detector.SuspiciousCount(),
	})
}

// handleReady pings the storage backend.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{}
	status, code := "ready", http.StatusOK
	if s.store == nil {
		checks["store"] = "not_configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else if err := s.store.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		checks["store"] = "failed"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

// Shutdown stops the limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
