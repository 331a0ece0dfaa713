package api

import (
	"context"
	"fmt"

	"github.com/rickgao/ledger-dashboard/internal/model"
)

// PoolPath returns the REST path of the market pool for an Ignite-scaffolded
// chain: /{org}/{repo}/market/pool.
func PoolPath(org, repo string) string {
	return "/" + org + "/" + repo + "/market/pool"
}

// GetPool fetches the market pool singleton. It returns (nil, nil) when the
// node reports no pool in a 2xx body; a missing pool (404) is an *APIError.
func (c *Client) GetPool(ctx context.Context, org, repo string) (*model.Pool, error) {
	var resp PoolResponse
	if err := c.get(ctx, PoolPath(org, repo), nil, &resp); err != nil {
		return nil, fmt.Errorf("get pool: %w", err)
	}
	if resp.Pool == nil {
		return nil, nil
	}
	pool := resp.Pool.ToModel()
	return &pool, nil
}
