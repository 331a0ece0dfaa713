package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/rickgao/ledger-dashboard/internal/model"
)

// ToModel converts an APIPool to model.Pool, trimming surrounding whitespace.
func (p *APIPool) ToModel() model.Pool {
	return model.Pool{
		ReserveOgc:   strings.TrimSpace(p.ReserveOgc),
		ReserveQuote: strings.TrimSpace(p.ReserveQuote),
	}
}

// Count returns the validator count, preferring the pagination total.
func (r *ValidatorSetResponse) Count() int {
	if n, err := strconv.Atoi(r.Pagination.Total); err == nil && n > 0 {
		return n
	}
	return len(r.Validators)
}

// ParseHeight parses a string-encoded block height.
// Returns 0 for empty or invalid input.
func ParseHeight(s string) int64 {
	h, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || h < 0 {
		return 0
	}
	return h
}

// ParseTimestamp parses an RFC 3339 timestamp with optional fractional seconds.
// Returns the zero time for empty or invalid input.
func ParseTimestamp(iso string) time.Time {
	if iso == "" {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339Nano, iso)
	if err != nil {
		// Try without timezone
		t, err = time.Parse("2006-01-02T15:04:05", iso)
		if err != nil {
			return time.Time{}
		}
	}

	return t.UTC()
}

// ToTransfers flattens successful MsgSend messages into transfers, keeping
// response order. Multi-coin sends produce one transfer per coin.
func (r *TxSearchResponse) ToTransfers() []model.Transfer {
	var out []model.Transfer
	for _, tx := range r.TxResponses {
		if tx.Code != 0 {
			continue
		}
		height := ParseHeight(tx.Height)
		ts := ParseTimestamp(tx.Timestamp)

		for _, msg := range tx.Tx.Body.Messages {
			if msg.Type != MsgSendType {
				continue
			}
			for _, coin := range msg.Amount {
				out = append(out, model.Transfer{
					TxHash: tx.TxHash,
					Height: height,
					Time:   ts,
					From:   msg.FromAddress,
					To:     msg.ToAddress,
					Amount: coin.Amount,
					Denom:  coin.Denom,
				})
			}
		}
	}
	return out
}
