package scoring

import (
	"cmp"
	"slices"
)

// Placing is one classified finisher.
type Placing struct {
	DriverID string
	Position int
}

// OrderOf returns the driver identifiers of placings sorted by position.
// Placings without a driver are dropped; equal positions keep their input order.
func OrderOf(placings []Placing) []string {
	sorted := slices.Clone(placings)
	slices.SortStableFunc(sorted, func(a, b Placing) int {
		return cmp.Compare(a.Position, b.Position)
	})

	out := make([]string, 0, len(sorted))
	for _, p := range sorted {
		if p.DriverID != "" {
			out = append(out, p.DriverID)
		}
	}
	return out
}
