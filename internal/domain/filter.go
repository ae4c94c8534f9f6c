package domain

import (
	"net/url"
	"strconv"
	"strings"
)

// FilterAll bypasses the manufacturer or category criterion.
const FilterAll = "all"

// DefaultPerPage is the page size of a fresh view.
const DefaultPerPage = 20

// PageSizes is the enumerated set of accepted page sizes.
var PageSizes = []int{10, 20, 40}

// FilterState is the transient per-view state driving the filter and pagination engines.
type FilterState struct {
	Search       string  `json:"search"`
	Manufacturer string  `json:"manufacturer"`
	Category     string  `json:"category"`
	SpeedLow     float64 `json:"speed_low"`
	SpeedHigh    float64 `json:"speed_high"`
	Page         int     `json:"page"`
	PerPage      int     `json:"per_page"`
}

// DefaultFilterState returns the state of a freshly opened (or reset) view.
func DefaultFilterState() FilterState {
	return FilterState{
		Search:       "",
		Manufacturer: FilterAll,
		Category:     FilterAll,
		SpeedLow:     MinSpeed,
		SpeedHigh:    MaxSpeed,
		Page:         1,
		PerPage:      DefaultPerPage,
	}
}

// Normalize returns a copy whose fields satisfy the FilterState invariants:
// speed interval ordered and inside [MinSpeed, MaxSpeed], page >= 1,
// per page one of PageSizes, empty selectors meaning "all".
func (f FilterState) Normalize() FilterState {
	if f.Manufacturer == "" {
		f.Manufacturer = FilterAll
	}
	if f.Category == "" {
		f.Category = FilterAll
	}

	f.SpeedLow = clampSpeed(f.SpeedLow)
	f.SpeedHigh = clampSpeed(f.SpeedHigh)
	if f.SpeedLow > f.SpeedHigh {
		f.SpeedLow, f.SpeedHigh = f.SpeedHigh, f.SpeedLow
	}

	if f.Page < 1 {
		f.Page = 1
	}
	if !ValidPageSize(f.PerPage) {
		f.PerPage = DefaultPerPage
	}
	return f
}

// ValidPageSize reports whether n is one of PageSizes.
func ValidPageSize(n int) bool {
	for _, s := range PageSizes {
		if s == n {
			return true
		}
	}
	return false
}

func clampSpeed(v float64) float64 {
	if v < MinSpeed {
		return MinSpeed
	}
	if v > MaxSpeed {
		return MaxSpeed
	}
	return v
}

// Matches reports whether a disc satisfies all four criteria.
func (f FilterState) Matches(d Disc) bool {
	return f.matchesSearch(d) &&
		f.matchesManufacturer(d) &&
		f.matchesCategory(d) &&
		f.matchesSpeed(d)
}

// matchesSearch is a case-insensitive substring match on name or brand.
func (f FilterState) matchesSearch(d Disc) bool {
	term := strings.ToLower(f.Search)
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(d.Name), term) ||
		strings.Contains(strings.ToLower(d.Brand), term)
}

func (f FilterState) matchesManufacturer(d Disc) bool {
	return f.Manufacturer == "" || f.Manufacturer == FilterAll || d.Brand == f.Manufacturer
}

func (f FilterState) matchesCategory(d Disc) bool {
	return f.Category == "" || f.Category == FilterAll || d.Category == f.Category
}

func (f FilterState) matchesSpeed(d Disc) bool {
	return d.Speed >= f.SpeedLow && d.Speed <= f.SpeedHigh
}

// Apply returns the discs matching f, in catalog order.
func (f FilterState) Apply(discs []Disc) []Disc {
	results := make([]Disc, 0, len(discs))
	for _, d := range discs {
		if f.Matches(d) {
			results = append(results, d)
		}
	}
	return results
}

// ParseFilterState reads filter parameters from a query string.
// Missing or invalid values fall back to DefaultFilterState; the result is normalized.
func ParseFilterState(q url.Values) FilterState {
	f := DefaultFilterState()

	f.Search = strings.TrimSpace(q.Get("search"))
	if v := q.Get("manufacturer"); v != "" {
		f.Manufacturer = v
	}
	if v := q.Get("category"); v != "" {
		f.Category = v
	}
	if v, err := strconv.ParseFloat(q.Get("speed_min"), 64); err == nil {
		f.SpeedLow = v
	}
	if v, err := strconv.ParseFloat(q.Get("speed_max"), 64); err == nil {
		f.SpeedHigh = v
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		f.Page = v
	}
	if v, err := strconv.Atoi(q.Get("per_page")); err == nil {
		f.PerPage = v
	}

	return f.Normalize()
}
