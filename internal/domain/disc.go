package domain

import "strings"

// Speed bounds observed across the catalog. The speed filter operates inside this interval.
const (
	MinSpeed = 1
	MaxSpeed = 14
)

// Well-known categories. The set is open: the catalog may introduce new ones.
const (
	CategoryDistanceDriver = "Distance Driver"
	CategoryFairwayDriver  = "Fairway Driver"
	CategoryControlDriver  = "Control Driver"
	CategoryHybridDriver   = "Hybrid Driver"
	CategoryMidrange       = "Midrange"
	CategoryApproach       = "Approach"
	CategoryPutter         = "Putter"
	CategoryDiscGolfSet    = "Disc Golf Set"
)

// Stability is the qualitative flight bias of a disc.
type Stability string

const (
	StabilityOverstable  Stability = "Overstable"
	StabilityStable      Stability = "Stable"
	StabilityUnderstable Stability = "Understable"
)

// ParseStability normalises a stability label. Unknown labels are kept verbatim.
func ParseStability(s string) Stability {
	trimmed := strings.TrimSpace(s)
	switch strings.ToLower(trimmed) {
	case "overstable", "very overstable":
		return StabilityOverstable
	case "stable":
		return StabilityStable
	case "understable", "very understable":
		return StabilityUnderstable
	default:
		return Stability(trimmed)
	}
}

// Disc is a single catalog item.
//
// Discs are produced by the catalog source at fetch time and never mutated afterwards.
type Disc struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// ID is the opaque, unique identifier assigned by the catalog source.
	ID string `json:"id"`

	// Name is the display name. Example: "Buzzz SS"
	Name string `json:"name"`

	// Brand is the manufacturer name. Example: "Discraft"
	Brand string `json:"brand"`

	// Category is one of a small open set (see Category* constants).
	Category string `json:"category"`

	// ─────────────────────────────
	// Flight characteristics
	// ─────────────────────────────

	Speed     float64   `json:"speed"`
	Glide     float64   `json:"glide"`
	Turn      float64   `json:"turn"`
	Fade      float64   `json:"fade"`
	Stability Stability `json:"stability"`

	// ─────────────────────────────
	// Cosmetics (no logic depends on these)
	// ─────────────────────────────

	Color           string `json:"color,omitempty"`
	BackgroundColor string `json:"background_color,omitempty"`
	Pic             string `json:"pic,omitempty"`
	Link            string `json:"link,omitempty"`
}

// IsDiscGolfSet reports whether a category names a boxed set rather than a single disc type.
func IsDiscGolfSet(category string) bool {
	return strings.EqualFold(strings.TrimSpace(category), CategoryDiscGolfSet)
}

// DistinctCategories returns the distinct categories in first-seen order.
func DistinctCategories(discs []Disc) []string {
	return distinct(discs, func(d Disc) string { return d.Category })
}

// DistinctManufacturers returns the distinct brands in first-seen order.
func DistinctManufacturers(discs []Disc) []string {
	return distinct(discs, func(d Disc) string { return d.Brand })
}

func distinct(discs []Disc, key func(Disc) string) []string {
	if len(discs) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, 16)
	out := make([]string, 0, 16)
	for _, d := range discs {
		k := key(d)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
