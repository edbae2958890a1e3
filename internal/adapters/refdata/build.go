package refdata

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"dexdash/internal/domain/currency"
)

var (
	ErrUnknownChain      = errors.New("asset references unknown chain")
	ErrInvalidDecimals   = errors.New("invalid asset decimals")
	ErrInvalidPrice      = errors.New("invalid asset price")
	ErrInvalidChainID    = errors.New("invalid chain identifier")
	ErrNativeTokenChain  = errors.New("native token lives on another chain")
	ErrDuplicateRecordID = errors.New("duplicate record id")
)

// maxDecimals bounds token precision; uint256 balances never need more.
const maxDecimals = 77

// Snapshot is the linked object graph built from a payload.
type Snapshot struct {
	Assets []*currency.Asset
	Chains []*currency.Chain
}

// Build turns a payload into linked assets and chains. Assets are created
// first with only their chain id, then chains, then both back-references
// are patched in by id. A native token id that matches no asset is left nil.
func Build(p *Payload) (*Snapshot, error) {
	assets := make([]*currency.Asset, 0, len(p.Assets))
	assetsByID := make(map[string]*currency.Asset, len(p.Assets))

	for _, r := range p.Assets {
		id := strings.ToLower(r.ID)
		if _, dup := assetsByID[id]; dup {
			return nil, fmt.Errorf("%w: asset_id=%s", ErrDuplicateRecordID, r.ID)
		}

		asset, err := newAsset(r)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
		assetsByID[id] = asset
	}

	chains := make([]*currency.Chain, 0, len(p.Chains))
	chainsByID := make(map[string]*currency.Chain, len(p.Chains))

	for _, r := range p.Chains {
		id := strings.ToLower(r.ID)
		if _, dup := chainsByID[id]; dup {
			return nil, fmt.Errorf("%w: chain_id=%s", ErrDuplicateRecordID, r.ID)
		}

		chain, err := newChain(r)
		if err != nil {
			return nil, err
		}
		chains = append(chains, chain)
		chainsByID[id] = chain
	}

	for i, asset := range assets {
		ref := p.Assets[i].Chain.ID
		chain, ok := chainsByID[strings.ToLower(ref)]
		if !ok {
			return nil, fmt.Errorf("%w: asset_id=%s chain_id=%s", ErrUnknownChain, asset.ID, ref)
		}
		asset.Chain = chain
	}

	for i, chain := range chains {
		ref := p.Chains[i].NativeToken
		if ref == nil {
			continue
		}
		native, ok := assetsByID[strings.ToLower(ref.ID)]
		if !ok {
			continue
		}
		if native.Chain != chain {
			return nil, fmt.Errorf("%w: chain_id=%s asset_id=%s", ErrNativeTokenChain, chain.ID, native.ID)
		}
		chain.NativeToken = native
	}

	return &Snapshot{Assets: assets, Chains: chains}, nil
}

func newAsset(r AssetRecord) (*currency.Asset, error) {
	if r.Decimals < 0 || r.Decimals > maxDecimals {
		return nil, fmt.Errorf("%w: asset_id=%s decimals=%d", ErrInvalidDecimals, r.ID, r.Decimals)
	}

	price, err := parsePrice(r)
	if err != nil {
		return nil, fmt.Errorf("%w: asset_id=%s", err, r.ID)
	}

	displayName := r.DisplayName
	if displayName == "" {
		displayName = r.Symbol
	}

	return &currency.Asset{
		ID:          r.ID,
		Symbol:      r.Symbol,
		Address:     r.Address,
		Name:        r.Name,
		DisplayName: displayName,
		Decimals:    r.Decimals,
		ImageURL:    r.LogoURL,
		PriceUsd:    price,
	}, nil
}

func newChain(r ChainRecord) (*currency.Chain, error) {
	chainID, err := strconv.ParseInt(r.ChainIdentifier.String(), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: chain_id=%s value=%q", ErrInvalidChainID, r.ID, r.ChainIdentifier)
	}

	displayName := r.DisplayName
	if displayName == "" {
		displayName = r.Name
	}

	return &currency.Chain{
		ID:          r.ID,
		ChainID:     chainID,
		Name:        r.Name,
		DisplayName: displayName,
		ImageURL:    r.LogoURL,
	}, nil
}

// parsePrice prefers the exact decimal priceUsd, falls back to the float
// price, and defaults to zero when neither is present.
func parsePrice(r AssetRecord) (*currency.UsdAmount, error) {
	if r.PriceUsd != "" {
		d, err := decimal.NewFromString(r.PriceUsd.String())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPrice, err)
		}
		if d.IsNegative() {
			return nil, fmt.Errorf("%w: negative price %s", ErrInvalidPrice, d)
		}
		return currency.NewUsdAmount(d.Shift(currency.UsdDecimals).BigInt()), nil
	}

	if r.Price != nil {
		if *r.Price < 0 {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPrice, *r.Price)
		}
		return currency.NewUsdAmountFromFloat(*r.Price), nil
	}

	return currency.ZeroUsd(), nil
}
