package store

import (
	"cmp"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"

	"dexdash/internal/adapters/cache"
)

// searchCacheSize bounds how many distinct predicates a store remembers.
const searchCacheSize = 256

type rankedItem[T any] struct {
	item  T
	rank  int
	label string
}

// rank orders items by their position in priority, first entry highest, with
// unlisted items ranked -1. Equal ranks sort by label, descending.
func rank[T any](items []T, priority []string, key, label func(T) string) []T {
	weights := make(map[string]int, len(priority))
	for i, p := range priority {
		weights[strings.ToLower(p)] = len(priority) - i
	}

	entries := make([]rankedItem[T], 0, len(items))
	for _, it := range items {
		r, ok := weights[strings.ToLower(key(it))]
		if !ok {
			r = -1
		}
		entries = append(entries, rankedItem[T]{item: it, rank: r, label: strings.ToLower(label(it))})
	}

	slices.SortStableFunc(entries, func(a, b rankedItem[T]) int {
		if a.rank != b.rank {
			return cmp.Compare(b.rank, a.rank)
		}
		return strings.Compare(b.label, a.label)
	})

	out := make([]T, len(entries))
	for i, e := range entries {
		out[i] = e.item
	}
	return out
}

type scoredItem[T any] struct {
	item     T
	distance int
}

// search keeps the items whose key contains predicate, case-insensitively,
// and orders them by edit distance to the predicate. Ties keep ranked order.
func search[T any](ranked []T, predicate string, key func(T) string) []T {
	if predicate == "" {
		return slices.Clone(ranked)
	}

	p := strings.ToLower(predicate)

	matches := make([]scoredItem[T], 0)
	for _, it := range ranked {
		k := strings.ToLower(key(it))
		if !strings.Contains(k, p) {
			continue
		}
		matches = append(matches, scoredItem[T]{item: it, distance: levenshtein.ComputeDistance(k, p)})
	}

	slices.SortStableFunc(matches, func(a, b scoredItem[T]) int {
		return cmp.Compare(a.distance, b.distance)
	})

	out := make([]T, len(matches))
	for i, m := range matches {
		out[i] = m.item
	}
	return out
}

// searchMany answers several predicates at once. Cached results are read in
// one batch and the misses are stored in one batch.
func searchMany[T any](c *cache.Cache[string, []T], predicates []string, run func(string) []T) map[string][]T {
	found := c.GetBatch(predicates)

	misses := make(map[string][]T)
	for _, p := range predicates {
		if _, ok := found[p]; ok {
			continue
		}
		if _, ok := misses[p]; ok {
			continue
		}
		misses[p] = run(p)
	}
	if len(misses) > 0 {
		c.SetBatch(misses)
	}

	out := make(map[string][]T, len(found)+len(misses))
	for p, items := range found {
		out[p] = slices.Clone(items)
	}
	for p, items := range misses {
		out[p] = slices.Clone(items)
	}
	return out
}
