package market

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/rickgao/ledger-dashboard/internal/model"
)

// PriceDecimals is the number of decimals in a displayed price.
const PriceDecimals = 4

// Derivation errors. Every one of them resolves to the absent state.
var (
	ErrNoPool           = errors.New("no pool")
	ErrZeroReserve      = errors.New("base reserve is zero")
	ErrMalformedReserve = errors.New("malformed reserve")
)

// Derive computes the display record for a pool.
func Derive(pool *model.Pool) (model.PricePoint, error) {
	if pool == nil || pool.ReserveOgc == "" || pool.ReserveQuote == "" {
		return model.PricePoint{}, ErrNoPool
	}

	base, err := parseReserve(pool.ReserveOgc)
	if err != nil {
		return model.PricePoint{}, fmt.Errorf("reserveOgc: %w", err)
	}
	quote, err := parseReserve(pool.ReserveQuote)
	if err != nil {
		return model.PricePoint{}, fmt.Errorf("reserveQuote: %w", err)
	}

	if base.IsZero() {
		return model.PricePoint{}, ErrZeroReserve
	}

	price, err := Ratio(quote, base)
	if err != nil {
		return model.PricePoint{}, err
	}

	return model.PricePoint{
		Price:  price,
		Volume: model.VolumeNotAvailable,
		Time:   model.TimeLive,
	}, nil
}

// Ratio formats quote/base with PriceDecimals decimals. The quotient is
// taken in float64 and its exact binary value is rounded to the nearest
// multiple of 10^-PriceDecimals, ties going to the larger value. So 3/160
// (stored just below 0.01875) gives "0.0187" and 1/32 gives "0.0313".
func Ratio(quote, base decimal.Decimal) (string, error) {
	q, _ := quote.Float64()
	b, _ := base.Float64()

	scaled := new(big.Rat).SetFloat64(q / b)
	if scaled == nil {
		return "", fmt.Errorf("%w: ratio %s/%s is not finite", ErrMalformedReserve, quote, base)
	}

	// floor(x*10^d + 1/2) for non-negative x.
	scaled.Mul(scaled, new(big.Rat).SetInt(priceScale))
	scaled.Add(scaled, big.NewRat(1, 2))
	n := new(big.Int).Quo(scaled.Num(), scaled.Denom())

	return decimal.NewFromBigInt(n, -PriceDecimals).StringFixed(PriceDecimals), nil
}

var priceScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(PriceDecimals), nil)

// parseReserve accepts non-negative base-10 integers of any size.
func parseReserve(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrMalformedReserve, s)
	}
	if !d.IsInteger() || d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("%w: %q is not a non-negative integer", ErrMalformedReserve, s)
	}
	return d, nil
}

// ReasonFor maps a derivation error to its model.Reason* label.
func ReasonFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrZeroReserve):
		return model.ReasonZeroReserve
	case errors.Is(err, ErrNoPool):
		return model.ReasonNoPool
	default:
		return model.ReasonMalformed
	}
}
