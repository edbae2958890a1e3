package store

import (
	"slices"
	"strconv"
	"strings"

	"dexdash/internal/adapters/cache"
	"dexdash/internal/domain/currency"
)

// ChainPriority lists the networks that lead every chain listing.
var ChainPriority = []string{"ethereum", "binance", "polygon", "optimism", "arbitrum"}

// ChainStore is an immutable, ranked view over a set of chains.
type ChainStore struct {
	chains []*currency.Chain

	byID      map[string]*currency.Chain
	byChainID map[int64]*currency.Chain
	byName    map[string]*currency.Chain

	searches *cache.Cache[string, []*currency.Chain]
}

func NewChainStore(chains []*currency.Chain) *ChainStore {
	ranked := rank(compact(chains), ChainPriority,
		func(c *currency.Chain) string { return c.Name },
		func(c *currency.Chain) string { return c.Label() },
	)

	s := &ChainStore{
		chains:    make([]*currency.Chain, 0, len(ranked)),
		byID:      make(map[string]*currency.Chain, len(ranked)),
		byChainID: make(map[int64]*currency.Chain, len(ranked)),
		byName:    make(map[string]*currency.Chain, len(ranked)),
		searches:  cache.NewCache[string, []*currency.Chain](searchCacheSize),
	}

	for _, c := range ranked {
		id := strings.ToLower(c.ID)
		if _, dup := s.byID[id]; dup {
			continue
		}
		s.chains = append(s.chains, c)
		s.byID[id] = c

		if _, ok := s.byChainID[c.ChainID]; !ok {
			s.byChainID[c.ChainID] = c
		}
		name := strings.ToLower(c.Name)
		if _, ok := s.byName[name]; !ok {
			s.byName[name] = c
		}
	}

	return s
}

func (s *ChainStore) GetAll() []*currency.Chain {
	return slices.Clone(s.chains)
}

func (s *ChainStore) Len() int {
	return len(s.chains)
}

func (s *ChainStore) GetByID(id string) (*currency.Chain, bool) {
	c, ok := s.byID[strings.ToLower(id)]
	return c, ok
}

func (s *ChainStore) GetByChainID(chainID int64) (*currency.Chain, bool) {
	c, ok := s.byChainID[chainID]
	return c, ok
}

// GetByChainIDString coerces a decimal or 0x-prefixed hex chain id.
func (s *ChainStore) GetByChainIDString(chainID string) (*currency.Chain, bool) {
	raw := strings.TrimSpace(chainID)

	base := 10
	if hex, ok := strings.CutPrefix(strings.ToLower(raw), "0x"); ok {
		raw, base = hex, 16
	}

	id, err := strconv.ParseInt(raw, base, 64)
	if err != nil {
		return nil, false
	}
	return s.GetByChainID(id)
}

// GetByName matches the chain name exactly, ignoring case.
func (s *ChainStore) GetByName(name string) (*currency.Chain, bool) {
	c, ok := s.byName[strings.ToLower(name)]
	return c, ok
}

// Search returns the chains whose name contains predicate, closest first.
func (s *ChainStore) Search(predicate string) []*currency.Chain {
	found := s.searches.GetOrSet(predicate, func() []*currency.Chain {
		return s.search(predicate)
	})
	return slices.Clone(found)
}

// SearchMany runs Search for every predicate, keyed by predicate.
func (s *ChainStore) SearchMany(predicates []string) map[string][]*currency.Chain {
	return searchMany(s.searches, predicates, s.search)
}

func (s *ChainStore) search(predicate string) []*currency.Chain {
	return search(s.chains, predicate, func(c *currency.Chain) string { return c.Name })
}
