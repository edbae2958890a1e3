package currency

import (
	"math"
	"math/big"
)

// Kind discriminates the concrete amount types.
type Kind int

const (
	KindUsd Kind = iota + 1
	KindAsset
)

func (k Kind) String() string {
	switch k {
	case KindUsd:
		return "usd"
	case KindAsset:
		return "asset"
	default:
		return "unknown"
	}
}

// Amount is the read-only capability shared by every fixed-point amount.
type Amount interface {
	Kind() Kind
	Symbol() string
	// N returns a copy of the magnitude in smallest units.
	N() *big.Int
	Decimals() int
	ToExactString() string
	ToNumber() float64
	ToDisplayString(opts ...DisplayOption) string
}

var (
	_ Amount = (*UsdAmount)(nil)
	_ Amount = (*AssetAmount)(nil)
)

// DisplayOption tunes ToDisplayString.
type DisplayOption func(*displayOptions)

type displayOptions struct {
	abbreviate    bool
	decimals      int
	includeSymbol bool
}

func newDisplayOptions(opts []DisplayOption) displayOptions {
	o := displayOptions{decimals: 2, includeSymbol: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.decimals < 0 {
		o.decimals = 0
	}
	return o
}

// WithAbbreviation renders large values as 1.23k, 4.5m and so on.
func WithAbbreviation() DisplayOption {
	return func(o *displayOptions) { o.abbreviate = true }
}

// WithDecimals sets the number of fraction digits. Defaults to 2.
func WithDecimals(n int) DisplayOption {
	return func(o *displayOptions) { o.decimals = n }
}

// WithoutSymbol drops the currency symbol from the output.
func WithoutSymbol() DisplayOption {
	return func(o *displayOptions) { o.includeSymbol = false }
}

// displayDecimals doubles the fraction digits for values too small to show
// at the requested precision.
func displayDecimals(num float64, decimals int) int {
	if num < 1/math.Pow10(decimals) {
		return decimals * 2
	}
	return decimals
}
