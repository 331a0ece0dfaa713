// Package api provides a client for a Cosmos chain node's REST API (port 1317).
//
// Endpoints used:
//   - /{org}/{repo}/market/pool                             AMM pool singleton (404 when none exists)
//   - /cosmos/base/tendermint/v1beta1/blocks/latest         latest block header
//   - /cosmos/base/tendermint/v1beta1/validatorsets/latest  active validator set
//   - /cosmos/tx/v1beta1/txs                                bank transfer search
package api
