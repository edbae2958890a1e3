package currency

import "math/big"

const (
	// UsdDecimals is the fixed precision of every USD amount.
	UsdDecimals = 18
	UsdSymbol   = "USD"
)

// UsdAmount is a USD value held as an integer count of 10^-18 dollars.
type UsdAmount struct {
	n *big.Int
}

// NewUsdAmount stores n as the raw magnitude. A nil n is zero.
func NewUsdAmount(n *big.Int) *UsdAmount {
	return &UsdAmount{n: copyInt(n)}
}

// NewUsdAmountFromFloat converts a dollar value via floor(value * 1e18).
func NewUsdAmountFromFloat(value float64) *UsdAmount {
	return &UsdAmount{n: floorScaled(value, UsdDecimals)}
}

// NewUsdAmountFromString parses s as the raw 18-decimal magnitude, so
// "1000000000000000000" is one dollar. Human decimals such as "1.5" fail
// with ErrInvalidLiteral.
func NewUsdAmountFromString(s string) (*UsdAmount, error) {
	n, err := parseRaw(s)
	if err != nil {
		return nil, err
	}
	return &UsdAmount{n: n}, nil
}

// ZeroUsd returns a zero dollar amount.
func ZeroUsd() *UsdAmount {
	return &UsdAmount{n: new(big.Int)}
}

func (u *UsdAmount) Kind() Kind { return KindUsd }

func (u *UsdAmount) Symbol() string { return UsdSymbol }

func (u *UsdAmount) N() *big.Int { return copyInt(u.n) }

func (u *UsdAmount) Decimals() int { return UsdDecimals }

// Precision returns 10^18.
func (u *UsdAmount) Precision() *big.Int { return pow10(UsdDecimals) }

func (u *UsdAmount) IsZero() bool { return u.n.Sign() == 0 }

func (u *UsdAmount) ToExactString() string {
	return exactString(u.n, UsdDecimals)
}

func (u *UsdAmount) ToNumber() float64 {
	return exactNumber(u.n, UsdDecimals)
}

func (u *UsdAmount) ToDisplayString(opts ...DisplayOption) string {
	o := newDisplayOptions(opts)

	symbol := ""
	if o.includeSymbol {
		symbol = UsdSymbol
	}
	return FormatCurrency(u.ToNumber(), symbol, o.decimals, o.abbreviate)
}

// ToAsset converts the dollar value into asset units at the asset's
// reference price.
func (u *UsdAmount) ToAsset(asset *Asset) (*AssetAmount, error) {
	return FromUsd(u, asset)
}

func (u *UsdAmount) String() string {
	return u.ToExactString() + " " + UsdSymbol
}
