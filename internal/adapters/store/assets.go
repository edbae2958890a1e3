package store

import (
	"slices"
	"strings"

	"dexdash/internal/adapters/cache"
	"dexdash/internal/domain/currency"
)

// AssetPriority lists the blue-chip symbols that lead every asset listing.
var AssetPriority = []string{"weth", "usdc", "wbtc", "dai", "wsteth"}

// AssetStore is an immutable, ranked view over a set of assets.
// It is safe for concurrent use.
type AssetStore struct {
	assets []*currency.Asset

	// Maps for fast lookups
	byID          map[string]*currency.Asset // id (lowercase) -> asset
	bySymbolChain map[string]*currency.Asset // symbol-chain (lowercase) -> asset
	byAddress     map[string]*currency.Asset // address-chain (lowercase) -> asset
	bySymbol      map[string]*currency.Asset // symbol (lowercase) -> highest ranked asset

	searches *cache.Cache[string, []*currency.Asset]
}

// NewAssetStore ranks assets and builds the lookup indexes from the ranked
// order. Nil entries are skipped, and of two assets sharing an id only the
// higher ranked one is kept.
func NewAssetStore(assets []*currency.Asset) *AssetStore {
	ranked := rank(compact(assets), AssetPriority,
		func(a *currency.Asset) string { return a.Symbol },
		func(a *currency.Asset) string { return a.Label() },
	)

	s := &AssetStore{
		assets:        make([]*currency.Asset, 0, len(ranked)),
		byID:          make(map[string]*currency.Asset, len(ranked)),
		bySymbolChain: make(map[string]*currency.Asset, len(ranked)),
		byAddress:     make(map[string]*currency.Asset, len(ranked)),
		bySymbol:      make(map[string]*currency.Asset),
		searches:      cache.NewCache[string, []*currency.Asset](searchCacheSize),
	}

	for _, a := range ranked {
		id := strings.ToLower(a.ID)
		if _, dup := s.byID[id]; dup {
			continue
		}
		s.assets = append(s.assets, a)
		s.byID[id] = a

		key := compositeKey(a.Symbol, a.ChainName())
		if _, ok := s.bySymbolChain[key]; !ok {
			s.bySymbolChain[key] = a
		}

		if a.Address != "" {
			addr := compositeKey(a.Address, a.ChainName())
			if _, ok := s.byAddress[addr]; !ok {
				s.byAddress[addr] = a
			}
		}

		symbol := strings.ToLower(a.Symbol)
		if _, ok := s.bySymbol[symbol]; !ok {
			s.bySymbol[symbol] = a
		}
	}

	return s
}

// GetAll returns every asset in ranked order.
func (s *AssetStore) GetAll() []*currency.Asset {
	return slices.Clone(s.assets)
}

func (s *AssetStore) Len() int {
	return len(s.assets)
}

// GetByID looks an asset up by id, case-insensitively.
func (s *AssetStore) GetByID(id string) (*currency.Asset, bool) {
	a, ok := s.byID[strings.ToLower(id)]
	return a, ok
}

// GetBySymbol looks an asset up by symbol on the named chain.
func (s *AssetStore) GetBySymbol(symbol, chainName string) (*currency.Asset, bool) {
	a, ok := s.bySymbolChain[compositeKey(symbol, chainName)]
	return a, ok
}

// GetByAddress looks an asset up by contract address on the named chain.
func (s *AssetStore) GetByAddress(address, chainName string) (*currency.Asset, bool) {
	a, ok := s.byAddress[compositeKey(address, chainName)]
	return a, ok
}

// FindBySymbol returns the highest ranked asset with the given symbol on any
// chain.
func (s *AssetStore) FindBySymbol(symbol string) (*currency.Asset, bool) {
	a, ok := s.bySymbol[strings.ToLower(symbol)]
	return a, ok
}

// Search returns the assets whose symbol contains predicate, closest first.
// An empty predicate returns GetAll.
func (s *AssetStore) Search(predicate string) []*currency.Asset {
	found := s.searches.GetOrSet(predicate, func() []*currency.Asset {
		return s.search(predicate)
	})
	return slices.Clone(found)
}

// SearchMany runs Search for every predicate, keyed by predicate.
func (s *AssetStore) SearchMany(predicates []string) map[string][]*currency.Asset {
	return searchMany(s.searches, predicates, s.search)
}

func (s *AssetStore) search(predicate string) []*currency.Asset {
	return search(s.assets, predicate, func(a *currency.Asset) string { return a.Symbol })
}

func compositeKey(value, chainName string) string {
	return strings.ToLower(value) + "-" + strings.ToLower(chainName)
}

func compact[T any](items []*T) []*T {
	out := make([]*T, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, it)
		}
	}
	return out
}
