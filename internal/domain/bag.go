package domain

import "time"

// MaxBagSize is the largest number of discs a bag may hold.
const MaxBagSize = 20

// BagEntry associates a user with a disc.
// At most one entry exists per (UserID, DiscID) pair.
type BagEntry struct {
	// ID is assigned by the bag store on insert.
	ID int64 `json:"id"`

	UserID string `json:"user_id"`
	DiscID string `json:"disc_id"`

	CreatedAt time.Time `json:"created_at"`
}

// CategoryCount is the number of bag discs in one category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// JoinBag resolves bag entries against a catalog lookup, preserving entry order.
// Entries whose disc id has no catalog match are dropped.
func JoinBag(entries []BagEntry, lookup func(id string) (Disc, bool)) []Disc {
	discs := make([]Disc, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.DiscID]; dup {
			continue
		}
		d, ok := lookup(e.DiscID)
		if !ok {
			continue
		}
		seen[e.DiscID] = struct{}{}
		discs = append(discs, d)
	}
	return discs
}

// Composition counts bag discs per category, following the order of categories
// and omitting categories with no discs.
func Composition(bag []Disc, categories []string) []CategoryCount {
	counts := make(map[string]int, len(categories))
	for _, d := range bag {
		counts[d.Category]++
	}

	out := make([]CategoryCount, 0, len(counts))
	listed := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		listed[c] = struct{}{}
		if n := counts[c]; n > 0 {
			out = append(out, CategoryCount{Category: c, Count: n})
		}
	}
	// Bag discs whose category vanished from the catalog facets still count.
	for _, d := range bag {
		if _, ok := listed[d.Category]; ok {
			continue
		}
		listed[d.Category] = struct{}{}
		out = append(out, CategoryCount{Category: d.Category, Count: counts[d.Category]})
	}
	return out
}
