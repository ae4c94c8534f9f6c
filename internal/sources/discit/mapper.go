package discit

import (
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/bagbuilder/internal/domain"
)

// Mapper converts discit records to domain.Disc values
type Mapper struct{}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapDiscs converts records in order and reports how many were skipped.
// A record is skipped when its id is empty or its speed is not a number.
func (m *Mapper) MapDiscs(records Catalog) ([]domain.Disc, int) {
	discs := make([]domain.Disc, 0, len(records))
	skipped := 0

	for _, r := range records {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			skipped++
			continue
		}

		speed, err := parseFlight(r.Speed)
		if err != nil {
			skipped++
			continue
		}

		discs = append(discs, domain.Disc{
			ID:              id,
			Name:            strings.TrimSpace(r.Name),
			Brand:           strings.TrimSpace(r.Brand),
			Category:        strings.TrimSpace(r.Category),
			Speed:           speed,
			Glide:           parseFlightOrZero(r.Glide),
			Turn:            parseFlightOrZero(r.Turn),
			Fade:            parseFlightOrZero(r.Fade),
			Stability:       domain.ParseStability(r.Stability),
			Color:           r.Color,
			BackgroundColor: r.BackgroundColor,
			Pic:             r.Pic,
			Link:            r.Link,
		})
	}

	return discs, skipped
}

// parseFlight reads a flight number such as "12", "-1.5" or "0.5".
func parseFlight(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func parseFlightOrZero(s string) float64 {
	v, err := parseFlight(s)
	if err != nil {
		return 0
	}
	return v
}
