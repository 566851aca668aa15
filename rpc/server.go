package rpc

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	nativecommon "stablevault/native/common"
	"stablevault/native/pricing"
	"stablevault/native/vault"
	"stablevault/observability"
)

const requestBodyLimit = 1 << 20 // 1 MiB

// Server exposes the vault engine over an HTTP API.
type Server struct {
	engine *vault.Engine
	board  *nativecommon.Switchboard
	logger *slog.Logger

	mu    sync.RWMutex
	feeds map[string]*pricing.ManualFeed

	limiter *clientLimiter
}

// NewServer wires the API surface over an engine. The switchboard may be nil
// when the deployment runs without administrative pause controls; the feed
// map records manual feeds so price updates can be served for them.
func NewServer(engine *vault.Engine, board *nativecommon.Switchboard, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine: engine,
		board:  board,
		logger: logger,
		feeds:  make(map[string]*pricing.ManualFeed),
	}
}

// SetRateLimit bounds per-client request throughput. Zero or negative values
// disable limiting.
func (s *Server) SetRateLimit(requestsPerSecond float64, burst int) {
	if requestsPerSecond <= 0 || burst <= 0 {
		s.limiter = nil
		return
	}
	s.limiter = newClientLimiter(requestsPerSecond, burst)
}

// RegisterFeed records a manual feed under its asset symbol so the admin
// price endpoint can reach it.
func (s *Server) RegisterFeed(symbol string, feed *pricing.ManualFeed) {
	if feed == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feeds[normalizeSymbol(symbol)] = feed
}

func (s *Server) feed(symbol string) (*pricing.ManualFeed, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	feed, ok := s.feeds[normalizeSymbol(symbol)]
	return feed, ok
}

// Router builds the chi routing tree with metrics, throttling, and body
// limits applied to every route.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(s.metricsMiddleware)
	if s.limiter != nil {
		r.Use(s.limiter.middleware)
	}
	r.Use(bodyLimit(requestBodyLimit))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1/vault", func(r chi.Router) {
		r.Post("/deposit", s.handleDeposit)
		r.Post("/withdraw", s.handleWithdraw)
		r.Post("/ratio", s.handleSetRatio)
		r.Post("/mint", s.handleMint)
		r.Post("/repay", s.handleRepay)
		r.Post("/liquidate", s.handleLiquidate)

		r.Get("/positions/{asset}/{user}", s.handleGetPosition)
		r.Get("/positions/{asset}/{user}/max-mintable", s.handleMaxMintable)
		r.Get("/positions/{asset}/{user}/health", s.handleHealthRatio)
		r.Get("/positions/{asset}/{user}/liquidation-price", s.handleLiquidationPrice)
		r.Get("/debt/{user}", s.handleTotalDebt)
	})

	r.Route("/v1/treasury", func(r chi.Router) {
		r.Get("/{asset}", s.handleTreasuryBalance)
		r.Post("/withdraw", s.handleTreasuryWithdraw)
		r.Post("/sweep", s.handleTreasurySweep)
	})

	r.Route("/v1/admin", func(r chi.Router) {
		r.Get("/assets", s.handleListAssets)
		r.Post("/assets", s.handleAddAsset)
		r.Delete("/assets/{symbol}", s.handleRemoveAsset)
		r.Post("/pause", s.handlePause)
		r.Post("/blacklist", s.handleBlacklist)
		r.Post("/price", s.handleSetPrice)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		observability.RPC().Observe(r.Method+" "+routePattern(r), rec.status, time.Since(start))
	})
}

func routePattern(r *http.Request) string {
	if ctx := chi.RouteContext(r.Context()); ctx != nil {
		if pattern := ctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func bodyLimit(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				observability.RPC().RecordThrottle("body_too_large")
				writeErrorMessage(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
