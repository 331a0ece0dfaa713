package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/rickgao/ledger-dashboard/internal/ledger"
	"github.com/rickgao/ledger-dashboard/internal/model"
)

// MarketReader returns the market state. Implemented by market.Board.
type MarketReader interface {
	Latest() (model.MarketUpdate, bool)
	Current() (model.PricePoint, bool)
	LastObserved() time.Time
}

// LedgerReader returns the chain view. Implemented by ledger.State.
type LedgerReader interface {
	Status() (model.NetworkStatus, bool)
	Transfers() []model.Transfer
}

// HistoryStore reads recorded price samples. Implemented by database.History.
type HistoryStore interface {
	RecentPrices(ctx context.Context, limit int) ([]model.PriceSample, error)
	Ping(ctx context.Context) error
}

// Pinger is a dependency checked by /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds HTTP server configuration.
type Config struct {
	Port            int           // Listen port (default: 8080)
	QuoteUnit       string        // Unit appended to the displayed price
	MarketInterval  time.Duration // Market poll interval, used to detect a stalled poller
	HealthTimeout   time.Duration // Per-request dependency check timeout (default: 5s)
	ShutdownTimeout time.Duration // Graceful shutdown limit (default: 10s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:            8080,
		QuoteUnit:       "QUOTE",
		MarketInterval:  5 * time.Second,
		HealthTimeout:   5 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Server serves the dashboard API.
type Server struct {
	cfg     Config
	market  MarketReader
	ledger  LedgerReader
	display ledger.Display
	history HistoryStore
	cache   Pinger
	stream  http.Handler
	logger  *slog.Logger
	now     func() time.Time
	started time.Time
}

// New creates a Server. History, cache and stream are optional and attached
// with their setters before Run.
func New(cfg Config, market MarketReader, state LedgerReader, display ledger.Display, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = 5 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	return &Server{
		cfg:     cfg,
		market:  market,
		ledger:  state,
		display: display,
		logger:  logger,
		now:     time.Now,
		started: time.Now(),
	}
}

// SetHistory enables /api/v1/market/history and the database health check.
func (s *Server) SetHistory(h HistoryStore) {
	s.history = h
}

// SetCache adds the cache to the health check.
func (s *Server) SetCache(p Pinger) {
	s.cache = p
}

// SetStream mounts the WebSocket handler at /ws.
func (s *Server) SetStream(h http.Handler) {
	s.stream = h
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/market", s.handleMarket)
	mux.HandleFunc("GET /api/v1/market/history", s.handleHistory)
	mux.HandleFunc("GET /api/v1/network", s.handleNetwork)
	mux.HandleFunc("GET /api/v1/ledger", s.handleLedger)
	mux.HandleFunc("GET /api/v1/version", s.handleVersion)
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.stream != nil {
		mux.Handle("GET /ws", s.stream)
	}

	return withCORS(mux)
}

// Run serves on cfg.Port until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api server started", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("api server stopped")
	return nil
}

// withCORS lets the dashboard frontend call the API from another origin.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}
