package market

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/ledger-dashboard/internal/model"
)

func TestDerive(t *testing.T) {
	tests := []struct {
		name      string
		pool      *model.Pool
		wantPrice string
		wantErr   error
	}{
		{"basic ratio", &model.Pool{ReserveOgc: "100", ReserveQuote: "250"}, "2.5000", nil},
		{"rounds to nearest", &model.Pool{ReserveOgc: "20000", ReserveQuote: "1"}, "0.0001", nil},
		{"binary value below decimal tie", &model.Pool{ReserveOgc: "160", ReserveQuote: "3"}, "0.0187", nil},
		{"exact binary tie rounds up", &model.Pool{ReserveOgc: "32", ReserveQuote: "1"}, "0.0313", nil},
		{"truncating ratio", &model.Pool{ReserveOgc: "3", ReserveQuote: "1"}, "0.3333", nil},
		{"rounds up", &model.Pool{ReserveOgc: "3", ReserveQuote: "2"}, "0.6667", nil},
		{"zero quote", &model.Pool{ReserveOgc: "10", ReserveQuote: "0"}, "0.0000", nil},
		{"large reserves", &model.Pool{ReserveOgc: "1000000000000000000000000", ReserveQuote: "3000000000000000000000000"}, "3.0000", nil},
		{"zero base", &model.Pool{ReserveOgc: "0", ReserveQuote: "250"}, "", ErrZeroReserve},
		{"zero base zero quote", &model.Pool{ReserveOgc: "0", ReserveQuote: "0"}, "", ErrZeroReserve},
		{"nil pool", nil, "", ErrNoPool},
		{"empty base", &model.Pool{ReserveOgc: "", ReserveQuote: "250"}, "", ErrNoPool},
		{"empty quote", &model.Pool{ReserveOgc: "100", ReserveQuote: ""}, "", ErrNoPool},
		{"non-numeric", &model.Pool{ReserveOgc: "abc", ReserveQuote: "250"}, "", ErrMalformedReserve},
		{"fractional", &model.Pool{ReserveOgc: "1.5", ReserveQuote: "250"}, "", ErrMalformedReserve},
		{"negative", &model.Pool{ReserveOgc: "100", ReserveQuote: "-5"}, "", ErrMalformedReserve},
		{"quote overflows float64", &model.Pool{ReserveOgc: "1", ReserveQuote: "1" + strings.Repeat("0", 400)}, "", ErrMalformedReserve},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			point, err := Derive(tt.pool)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, model.PricePoint{}, point)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrice, point.Price)
			assert.Equal(t, model.VolumeNotAvailable, point.Volume)
			assert.Equal(t, model.TimeLive, point.Time)
		})
	}
}

func TestRatio(t *testing.T) {
	tests := []struct {
		quote, base int64
		want        string
	}{
		{250, 100, "2.5000"},
		{7, 7, "1.0000"},
		{3, 160, "0.0187"},
		{1, 32, "0.0313"},
		{1, 3, "0.3333"},
		{5, 80000, "0.0001"},
	}

	for _, tt := range tests {
		got, err := Ratio(decimal.NewFromInt(tt.quote), decimal.NewFromInt(tt.base))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "Ratio(%d, %d)", tt.quote, tt.base)
	}
}

func TestReasonFor(t *testing.T) {
	_, zeroErr := Derive(&model.Pool{ReserveOgc: "0", ReserveQuote: "1"})
	_, noPoolErr := Derive(nil)
	_, badErr := Derive(&model.Pool{ReserveOgc: "x", ReserveQuote: "1"})

	assert.Equal(t, "", ReasonFor(nil))
	assert.Equal(t, model.ReasonZeroReserve, ReasonFor(zeroErr))
	assert.Equal(t, model.ReasonNoPool, ReasonFor(noPoolErr))
	assert.Equal(t, model.ReasonMalformed, ReasonFor(badErr))
}
