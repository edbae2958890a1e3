package currency

import "math/big"

// Asset is a fungible token on a specific chain.
type Asset struct {
	ID          string
	Symbol      string
	Address     string
	Name        string
	DisplayName string
	Decimals    int
	ImageURL    string
	Chain       *Chain
	PriceUsd    *UsdAmount
}

// Precision returns 10^Decimals, the number of smallest units per whole asset.
func (a *Asset) Precision() *big.Int {
	return pow10(a.Decimals)
}

// ChainName returns the name of the chain the asset lives on, or "" if the
// chain hasn't been resolved.
func (a *Asset) ChainName() string {
	if a == nil || a.Chain == nil {
		return ""
	}
	return a.Chain.Name
}

// Price returns the reference USD price, or zero when none is known.
func (a *Asset) Price() *UsdAmount {
	if a == nil || a.PriceUsd == nil {
		return ZeroUsd()
	}
	return a.PriceUsd
}

// Label is the name used for display ordering.
func (a *Asset) Label() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.Symbol
}
