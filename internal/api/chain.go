package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// GetLatestBlock fetches the latest block header.
func (c *Client) GetLatestBlock(ctx context.Context) (*BlockHeader, error) {
	var resp LatestBlockResponse
	if err := c.get(ctx, "/cosmos/base/tendermint/v1beta1/blocks/latest", nil, &resp); err != nil {
		return nil, fmt.Errorf("get latest block: %w", err)
	}
	return &resp.Block.Header, nil
}

// GetValidatorCount returns the size of the latest validator set.
func (c *Client) GetValidatorCount(ctx context.Context) (int, error) {
	var resp ValidatorSetResponse
	if err := c.get(ctx, "/cosmos/base/tendermint/v1beta1/validatorsets/latest", nil, &resp); err != nil {
		return 0, fmt.Errorf("get validator set: %w", err)
	}
	return resp.Count(), nil
}

// GetRecentTransfers searches the newest bank sends, newest first.
func (c *Client) GetRecentTransfers(ctx context.Context, limit int) (*TxSearchResponse, error) {
	query := url.Values{}
	query.Set("query", "message.action='"+MsgSendType+"'")
	query.Set("order_by", "ORDER_BY_DESC")
	if limit > 0 {
		query.Set("pagination.limit", strconv.Itoa(limit))
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp TxSearchResponse
	if err := c.get(ctx, "/cosmos/tx/v1beta1/txs", query, &resp); err != nil {
		return nil, fmt.Errorf("get transfers: %w", err)
	}
	return &resp, nil
}
