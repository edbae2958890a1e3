package currency

import (
	"errors"
	"fmt"
	"math/big"
)

// ErrZeroPrice is returned when converting USD into an asset priced at zero.
var ErrZeroPrice = errors.New("asset price is zero")

// AssetAmount is a quantity of one asset held in the asset's smallest unit,
// carrying the USD rate used for conversions.
type AssetAmount struct {
	n        *big.Int
	asset    *Asset
	priceUsd *UsdAmount
	isDebt   bool
}

// NewAssetAmount stores n as the raw magnitude in asset units. A nil price
// falls back to the asset's reference price.
func NewAssetAmount(n *big.Int, asset *Asset, priceUsd *UsdAmount) *AssetAmount {
	if asset == nil {
		panic("currency: nil asset")
	}
	if priceUsd == nil {
		priceUsd = asset.Price()
	}
	return &AssetAmount{n: copyInt(n), asset: asset, priceUsd: priceUsd}
}

// NewAssetAmountFromFloat converts a whole-unit value via
// floor(value * 10^asset.Decimals).
func NewAssetAmountFromFloat(value float64, asset *Asset, priceUsd *UsdAmount) *AssetAmount {
	if asset == nil {
		panic("currency: nil asset")
	}
	return NewAssetAmount(floorScaled(value, asset.Decimals), asset, priceUsd)
}

// NewAssetAmountFromString parses s as the raw magnitude in the asset's
// smallest unit.
func NewAssetAmountFromString(s string, asset *Asset, priceUsd *UsdAmount) (*AssetAmount, error) {
	n, err := parseRaw(s)
	if err != nil {
		return nil, fmt.Errorf("%w: asset=%s", err, asset.Symbol)
	}
	return NewAssetAmount(n, asset, priceUsd), nil
}

// WithDebt returns a copy of the amount flagged as a debt position.
func (a *AssetAmount) WithDebt(isDebt bool) *AssetAmount {
	cp := *a
	cp.isDebt = isDebt
	return &cp
}

func (a *AssetAmount) Kind() Kind { return KindAsset }

func (a *AssetAmount) Symbol() string { return a.asset.Symbol }

func (a *AssetAmount) N() *big.Int { return copyInt(a.n) }

func (a *AssetAmount) Decimals() int { return a.asset.Decimals }

func (a *AssetAmount) Asset() *Asset { return a.asset }

func (a *AssetAmount) PriceUsd() *UsdAmount { return a.priceUsd }

func (a *AssetAmount) IsDebt() bool { return a.isDebt }

func (a *AssetAmount) IsZero() bool { return a.n.Sign() == 0 }

func (a *AssetAmount) ToExactString() string {
	return exactString(a.n, a.asset.Decimals)
}

func (a *AssetAmount) ToNumber() float64 {
	return exactNumber(a.n, a.asset.Decimals)
}

func (a *AssetAmount) ToDisplayString(opts ...DisplayOption) string {
	o := newDisplayOptions(opts)

	num := a.ToNumber()
	decimals := displayDecimals(num, o.decimals)

	symbol := ""
	if o.includeSymbol {
		symbol = a.asset.Symbol
	}
	return FormatCurrency(num, symbol, decimals, o.abbreviate)
}

// ToUsd values the amount at its bound price:
// (n * price / 10^18) * 10^18 / 10^decimals.
func (a *AssetAmount) ToUsd() *UsdAmount {
	usdPrecision := pow10(UsdDecimals)

	n := new(big.Int).Mul(a.n, a.priceUsd.n)
	n.Quo(n, usdPrecision)
	n.Mul(n, usdPrecision)
	n.Quo(n, a.asset.Precision())

	return &UsdAmount{n: n}
}

// ToAsset converts the amount into target, bridging through USD unless the
// symbols already match.
func (a *AssetAmount) ToAsset(target *Asset) (*AssetAmount, error) {
	return FromAsset(a, target)
}

func (a *AssetAmount) String() string {
	return a.ToExactString() + " " + a.asset.Symbol
}

// FromUsd converts usd into asset units at the asset's reference price. The
// rate always comes from asset.PriceUsd, never from usd itself.
func FromUsd(usd *UsdAmount, asset *Asset) (*AssetAmount, error) {
	return FromUsdAtPrice(usd, asset, asset.Price())
}

// FromUsdAtPrice converts usd into asset units at price:
// (usd * 10^18 / price) * 10^decimals / 10^18.
func FromUsdAtPrice(usd *UsdAmount, asset *Asset, price *UsdAmount) (*AssetAmount, error) {
	if price == nil || price.IsZero() {
		return nil, fmt.Errorf("%w: asset=%s", ErrZeroPrice, asset.Symbol)
	}

	usdPrecision := pow10(UsdDecimals)

	n := new(big.Int).Mul(usd.n, usdPrecision)
	n.Quo(n, price.n)
	n.Mul(n, asset.Precision())
	n.Quo(n, usdPrecision)

	return &AssetAmount{n: n, asset: asset, priceUsd: price}, nil
}

// FromAsset converts amount into target. Amounts whose symbol already equals
// the target's symbol are returned unchanged, regardless of chain.
func FromAsset(amount *AssetAmount, target *Asset) (*AssetAmount, error) {
	if amount.asset.Symbol == target.Symbol {
		return amount, nil
	}
	return FromUsd(amount.ToUsd(), target)
}
