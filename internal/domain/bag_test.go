package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func lookupIn(discs []Disc) func(string) (Disc, bool) {
	byID := make(map[string]Disc, len(discs))
	for _, d := range discs {
		byID[d.ID] = d
	}
	return func(id string) (Disc, bool) {
		d, ok := byID[id]
		return d, ok
	}
}

func TestJoinBag(t *testing.T) {
	entries := []BagEntry{
		{ID: 1, UserID: "u", DiscID: "4"},
		{ID: 2, UserID: "u", DiscID: "gone"},
		{ID: 3, UserID: "u", DiscID: "2"},
		{ID: 4, UserID: "u", DiscID: "4"},
	}

	got := ids(JoinBag(entries, lookupIn(sampleDiscs())))
	if diff := cmp.Diff([]string{"4", "2"}, got); diff != "" {
		t.Errorf("JoinBag() mismatch (-want +got):\n%s", diff)
	}
}

func TestComposition(t *testing.T) {
	bag := []Disc{
		{ID: "a", Category: CategoryPutter},
		{ID: "b", Category: CategoryMidrange},
		{ID: "c", Category: CategoryPutter},
		{ID: "d", Category: "Retired Mold"},
	}
	categories := []string{CategoryDistanceDriver, CategoryMidrange, CategoryPutter}

	want := []CategoryCount{
		{Category: CategoryMidrange, Count: 1},
		{Category: CategoryPutter, Count: 2},
		{Category: "Retired Mold", Count: 1},
	}
	if diff := cmp.Diff(want, Composition(bag, categories)); diff != "" {
		t.Errorf("Composition() mismatch (-want +got):\n%s", diff)
	}
}

func TestDistinctFacets(t *testing.T) {
	discs := sampleDiscs()

	if diff := cmp.Diff([]string{"Innova", "Discraft"}, DistinctManufacturers(discs)); diff != "" {
		t.Errorf("DistinctManufacturers() mismatch (-want +got):\n%s", diff)
	}
	wantCats := []string{
		CategoryDistanceDriver, CategoryMidrange, CategoryPutter,
		CategoryFairwayDriver, CategoryApproach, CategoryDiscGolfSet,
	}
	if diff := cmp.Diff(wantCats, DistinctCategories(discs)); diff != "" {
		t.Errorf("DistinctCategories() mismatch (-want +got):\n%s", diff)
	}
	if got := DistinctCategories(nil); got == nil || len(got) != 0 {
		t.Errorf("DistinctCategories(nil) = %v, want empty slice", got)
	}
}

func TestParseStability(t *testing.T) {
	tests := map[string]Stability{
		"Overstable":       StabilityOverstable,
		" very overstable": StabilityOverstable,
		"stable":           StabilityStable,
		"Understable":      StabilityUnderstable,
		"Wobbly":           Stability("Wobbly"),
	}
	for in, want := range tests {
		if got := ParseStability(in); got != want {
			t.Errorf("ParseStability(%q) = %q, want %q", in, got, want)
		}
	}
}
