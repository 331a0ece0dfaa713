package api

import "encoding/json"

// PoolResponse from GET /{org}/{repo}/market/pool.
// Pool is nil when the node answers {"pool": null} or omits the key.
type PoolResponse struct {
	Pool *APIPool `json:"pool"`
}

// APIPool is the pool singleton as the node serialises it.
type APIPool struct {
	ReserveOgc   string `json:"reserveOgc"`
	ReserveQuote string `json:"reserveQuote"`
}

// LatestBlockResponse from GET /cosmos/base/tendermint/v1beta1/blocks/latest
type LatestBlockResponse struct {
	Block struct {
		Header BlockHeader `json:"header"`
	} `json:"block"`
}

// BlockHeader holds the header fields the dashboard reads.
type BlockHeader struct {
	ChainID string `json:"chain_id"`
	Height  string `json:"height"` // int64 encoded as string
	Time    string `json:"time"`   // RFC 3339 with nanoseconds
}

// ValidatorSetResponse from GET /cosmos/base/tendermint/v1beta1/validatorsets/latest
type ValidatorSetResponse struct {
	BlockHeight string            `json:"block_height"`
	Validators  []json.RawMessage `json:"validators"`
	Pagination  struct {
		Total string `json:"total"`
	} `json:"pagination"`
}

// TxSearchResponse from GET /cosmos/tx/v1beta1/txs
type TxSearchResponse struct {
	TxResponses []TxResponse `json:"tx_responses"`
}

// TxResponse is a single indexed transaction.
type TxResponse struct {
	Height    string `json:"height"`
	TxHash    string `json:"txhash"`
	Code      int    `json:"code"` // Non-zero = failed
	Timestamp string `json:"timestamp"`
	Tx        struct {
		Body struct {
			Messages []TxMessage `json:"messages"`
		} `json:"body"`
	} `json:"tx"`
}

// TxMessage is a Msg inside a tx body. Only MsgSend fields are decoded.
type TxMessage struct {
	Type        string `json:"@type"`
	FromAddress string `json:"from_address"`
	ToAddress   string `json:"to_address"`
	Amount      []Coin `json:"amount"`
}

// Coin is an sdk.Coin.
type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// MsgSendType is the type URL of a bank send.
const MsgSendType = "/cosmos.bank.v1beta1.MsgSend"
