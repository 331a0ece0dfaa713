package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rickgao/ledger-dashboard/internal/model"
)

// Display formats chain values for the dashboard.
type Display struct {
	DisplayDenom  string // e.g. "OGC"
	Exponent      int    // Base units per display unit, as a power of ten
	AddressPrefix string // Bech32 human-readable part, e.g. "ogc"
}

// BaseDenom is the on-chain denom of DisplayDenom, e.g. "uogc".
func (d Display) BaseDenom() string {
	return "u" + strings.ToLower(d.DisplayDenom)
}

// NetworkView is the display form of a NetworkStatus.
type NetworkView struct {
	Status        string    `json:"status"`
	ChainID       string    `json:"chain_id,omitempty"`
	BlockHeight   string    `json:"block_height"`
	Height        int64     `json:"height"`
	BlockTime     time.Time `json:"block_time,omitempty"`
	ValidatorSet  int       `json:"validator_set"`
	ValidatorMode string    `json:"validator_mode"` // "Fixed" or "Live"
}

// TransferView is the display form of a Transfer.
type TransferView struct {
	TxHash string    `json:"tx_hash"`
	From   string    `json:"from"`
	To     string    `json:"to"`
	Amount string    `json:"amount"`
	Height string    `json:"height"`
	Age    string    `json:"time"`
	Time   time.Time `json:"timestamp"`
}

// Network renders a status.
func (d Display) Network(s model.NetworkStatus) NetworkView {
	mode := "Live"
	if s.ValidatorsFixed {
		mode = "Fixed"
	}
	return NetworkView{
		Status:        s.StatusLabel(),
		ChainID:       s.ChainID,
		BlockHeight:   FormatInt(s.BlockHeight),
		Height:        s.BlockHeight,
		BlockTime:     s.BlockTime,
		ValidatorSet:  s.ValidatorCount,
		ValidatorMode: mode,
	}
}

// Transfers renders a transfer feed relative to now.
func (d Display) Transfers(ts []model.Transfer, now time.Time) []TransferView {
	out := make([]TransferView, 0, len(ts))
	for _, t := range ts {
		out = append(out, TransferView{
			TxHash: t.TxHash,
			From:   d.ShortAddress(t.From),
			To:     d.ShortAddress(t.To),
			Amount: d.FormatAmount(t.Amount, t.Denom),
			Height: FormatInt(t.Height),
			Age:    Age(t.Time, now),
			Time:   t.Time,
		})
	}
	return out
}

// ShortAddress abbreviates a bech32 address to "<prefix>...<last 3>".
func (d Display) ShortAddress(addr string) string {
	prefix := d.AddressPrefix
	if prefix == "" || !strings.HasPrefix(addr, prefix+"1") || len(addr) < len(prefix)+7 {
		return addr
	}
	return prefix + "..." + addr[len(addr)-3:]
}

// FormatAmount renders an integer amount with thousands separators, scaling
// the base denom to the display denom.
func (d Display) FormatAmount(amount, denom string) string {
	v, err := decimal.NewFromString(amount)
	if err != nil {
		return strings.TrimSpace(amount + " " + denom)
	}

	unit := denom
	if strings.EqualFold(denom, d.BaseDenom()) {
		v = v.Shift(-int32(d.Exponent))
		unit = d.DisplayDenom
	}
	return FormatDecimal(v) + " " + unit
}

// FormatInt renders n with English thousands separators.
func FormatInt(n int64) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}

// FormatDecimal renders a decimal with thousands separators on the integer
// part and no trailing zeros. The integer part may exceed int64.
func FormatDecimal(v decimal.Decimal) string {
	whole := v.Truncate(0)
	s := groupThousands(whole.Abs().String())
	if v.IsNegative() {
		s = "-" + s
	}

	frac := v.Sub(whole).Abs()
	if !frac.IsZero() {
		// frac.String() is "0.xxx"
		s += strings.TrimPrefix(frac.String(), "0")
	}
	return s
}

// groupThousands inserts a comma every three digits from the right.
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	head := len(digits) % 3
	if head == 0 {
		head = 3
	}
	b.WriteString(digits[:head])
	for i := head; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Age renders how long ago t was: "10s ago", "1m ago", "3h ago", "2d ago".
func Age(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	switch {
	case d < time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d/time.Second))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	}
}
