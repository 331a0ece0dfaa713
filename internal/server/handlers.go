package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rickgao/ledger-dashboard/internal/ledger"
	"github.com/rickgao/ledger-dashboard/internal/model"
	"github.com/rickgao/ledger-dashboard/internal/version"
)

// NoMarketDisplay is shown while the market is absent.
const NoMarketDisplay = "No active market"

// Health status values.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// MarketResponse is the body of GET /api/v1/market.
type MarketResponse struct {
	Market     *model.PricePoint `json:"market"`
	Display    string            `json:"display"`
	ObservedAt *time.Time        `json:"observed_at"`
}

// HistoryResponse is the body of GET /api/v1/market/history.
type HistoryResponse struct {
	Count   int                 `json:"count"`
	Samples []model.PriceSample `json:"samples"`
}

// LedgerResponse is the body of GET /api/v1/ledger.
type LedgerResponse struct {
	Count     int                   `json:"count"`
	Transfers []ledger.TransferView `json:"transfers"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status     string         `json:"status"`
	Uptime     string         `json:"uptime"`
	Components map[string]any `json:"components"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	u, polled := s.market.Latest()

	resp := MarketResponse{Display: NoMarketDisplay}
	if polled {
		observed := u.ObservedAt.UTC()
		resp.ObservedAt = &observed
	}
	if u.Point != nil {
		point := *u.Point
		resp.Market = &point
		resp.Display = point.Display(s.cfg.QuoteUnit)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "price history is disabled"})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	samples, err := s.history.RecentPrices(r.Context(), limit)
	if err != nil {
		s.logger.Error("price history query failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "price history unavailable"})
		return
	}
	if samples == nil {
		samples = []model.PriceSample{}
	}

	writeJSON(w, http.StatusOK, HistoryResponse{Count: len(samples), Samples: samples})
}

func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	status, ok := s.ledger.Status()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "network status not yet observed"})
		return
	}
	writeJSON(w, http.StatusOK, s.display.Network(status))
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	views := s.display.Transfers(s.ledger.Transfers(), s.now())
	writeJSON(w, http.StatusOK, LedgerResponse{Count: len(views), Transfers: views})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, version.Get())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.HealthTimeout)
	defer cancel()

	health := HealthResponse{
		Status:     StatusHealthy,
		Uptime:     s.now().Sub(s.started).Truncate(time.Second).String(),
		Components: make(map[string]any),
	}

	// Database is the only hard dependency.
	if s.history != nil {
		if err := s.history.Ping(ctx); err != nil {
			health.Status = StatusUnhealthy
			health.Components["postgres"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["postgres"] = "connected"
		}
	}

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			health.degrade()
			health.Components["redis"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["redis"] = "connected"
		}
	}

	lastPoll := s.market.LastObserved()
	polled := !lastPoll.IsZero()
	market := map[string]any{"polled": polled}
	if polled {
		_, active := s.market.Current()
		market["last_poll"] = lastPoll.UTC()
		market["active"] = active
		if s.cfg.MarketInterval > 0 && s.now().Sub(lastPoll) > 3*s.cfg.MarketInterval {
			market["stalled"] = true
			health.degrade()
		}
	} else {
		health.degrade()
	}
	health.Components["market_poller"] = market

	if status, ok := s.ledger.Status(); ok {
		health.Components["chain"] = status.StatusLabel()
		if !status.Operational {
			health.degrade()
		}
	} else {
		health.Components["chain"] = "unknown"
	}

	code := http.StatusOK
	if health.Status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, health)
}

func (h *HealthResponse) degrade() {
	if h.Status == StatusHealthy {
		h.Status = StatusDegraded
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
