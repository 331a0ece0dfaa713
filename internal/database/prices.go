package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/ledger-dashboard/internal/model"
)

// Price history limits for RecentPrices callers.
const (
	DefaultHistoryLimit = 100
	MaxHistoryLimit     = 1000
)

const recentPricesSQL = `
	SELECT id, observed_at,
	       COALESCE(reserve_ogc::text, ''),
	       COALESCE(reserve_quote::text, ''),
	       COALESCE(price::text, ''),
	       status
	FROM market_prices
	ORDER BY observed_at DESC
	LIMIT $1
`

// RecentPrices returns up to limit samples, newest first.
func RecentPrices(ctx context.Context, db Querier, limit int) ([]model.PriceSample, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	rows, err := db.Query(ctx, recentPricesSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query market prices: %w", err)
	}

	samples, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.PriceSample, error) {
		var s model.PriceSample
		err := row.Scan(&s.ID, &s.ObservedAt, &s.ReserveOgc, &s.ReserveQuote, &s.Price, &s.Status)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan market prices: %w", err)
	}

	return samples, nil
}

// History serves price samples from a pool.
type History struct {
	pool *pgxpool.Pool
}

// NewHistory wraps a pool.
func NewHistory(pool *pgxpool.Pool) *History {
	return &History{pool: pool}
}

// RecentPrices returns up to limit samples, newest first.
func (h *History) RecentPrices(ctx context.Context, limit int) ([]model.PriceSample, error) {
	return RecentPrices(ctx, h.pool, limit)
}

// Ping checks the database is reachable.
func (h *History) Ping(ctx context.Context) error {
	return h.pool.Ping(ctx)
}
