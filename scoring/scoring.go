// Package scoring awards points for a race prediction against the official result.
//
// Calculate is the single source of truth: it returns every awarded line item and
// the total, and Score is simply its total. Nothing here performs I/O and no input
// can make it fail; guesses that cannot be matched contribute zero.
package scoring

import "fmt"

// Point values for every prediction slot.
const (
	PolePosition  = 10
	FastestLap    = 1
	RaceWinner    = 15
	Race2ndExact  = 10
	Race2ndPodium = 5
	Race3rdExact  = 8
	Race3rdPodium = 3
	Top5Exact     = 5
	Top5Correct   = 1

	SprintPole      = 5
	SprintWinner    = 8
	Sprint2ndExact  = 5
	Sprint2ndPodium = 3
	Sprint3rdExact  = 3
	Sprint3rdPodium = 1

	PerfectPodium       = 10
	PerfectTop5         = 10
	PerfectSprintPodium = 5
)

// RaceSlots and SprintSlots are how many ordered guesses are scored.
const (
	RaceSlots   = 5
	SprintSlots = 3
	podiumSize  = 3
)

// Category groups line items in a breakdown.
type Category string

const (
	CategoryRacePosition     Category = "Race Position"
	CategoryBonus            Category = "Bonus"
	CategoryQualifying       Category = "Qualifying"
	CategoryRace             Category = "Race"
	CategorySprint           Category = "Sprint"
	CategorySprintBonus      Category = "Sprint Bonus"
	CategorySprintQualifying Category = "Sprint Qualifying"
)

// Prediction holds a user's guesses. Driver identifiers are opaque strings and
// an empty string means "no guess".
type Prediction struct {
	Positions       []string
	Pole            string
	FastestLap      string
	SprintPositions []string
	SprintPole      string
}

// Result is the official outcome. Order lists driver identifiers by finishing
// position, winner first. Sprint is nil when the weekend had no sprint.
type Result struct {
	Pole       string
	FastestLap string
	Order      []string
	Sprint     *SprintResult
}

// SprintResult is the official sprint outcome.
type SprintResult struct {
	Pole  string
	Order []string
}

// LineItem is one awarded amount.
type LineItem struct {
	Category    Category `json:"category"`
	Points      int      `json:"points"`
	Description string   `json:"description"`
}

// Breakdown lists every awarded line item. Total is always the sum of Items.
type Breakdown struct {
	Total int        `json:"total"`
	Items []LineItem `json:"breakdown"`
}

func (b *Breakdown) add(cat Category, points int, format string, args ...any) {
	if points == 0 {
		return
	}
	b.Items = append(b.Items, LineItem{
		Category:    cat,
		Points:      points,
		Description: fmt.Sprintf(format, args...),
	})
	b.Total += points
}

// Score returns the total points for p against r.
func Score(p Prediction, r Result) int {
	return Calculate(p, r).Total
}

// Calculate scores p against r and returns the itemised breakdown.
func Calculate(p Prediction, r Result) Breakdown {
	b := Breakdown{Items: []LineItem{}}

	scoreRace(&b, p.Positions, r.Order)

	if p.Pole != "" && p.Pole == r.Pole {
		b.add(CategoryQualifying, PolePosition, "Pole Position (%s)", p.Pole)
	}
	if p.FastestLap != "" && p.FastestLap == r.FastestLap {
		b.add(CategoryRace, FastestLap, "Fastest Lap (%s)", p.FastestLap)
	}

	if r.Sprint != nil {
		scoreSprint(&b, p.SprintPositions, r.Sprint.Order)
		if p.SprintPole != "" && p.SprintPole == r.Sprint.Pole {
			b.add(CategorySprintQualifying, SprintPole, "Sprint Pole (%s)", p.SprintPole)
		}
	}

	return b
}

func scoreRace(b *Breakdown, guesses, order []string) {
	idx := indexOf(order)
	for i := 0; i < min(len(guesses), RaceSlots); i++ {
		driver := guesses[i]
		if driver == "" {
			continue
		}
		actual, ok := idx[driver]
		if !ok {
			continue
		}

		if actual == i {
			switch i {
			case 0:
				b.add(CategoryRacePosition, RaceWinner, "Race Winner (%s)", driver)
			case 1:
				b.add(CategoryRacePosition, Race2ndExact, "2nd Place Exact (%s)", driver)
			case 2:
				b.add(CategoryRacePosition, Race3rdExact, "3rd Place Exact (%s)", driver)
			default:
				b.add(CategoryRacePosition, Top5Exact, "%dth Place Exact (%s)", i+1, driver)
			}
			continue
		}

		switch {
		case i == 1 && actual < podiumSize:
			b.add(CategoryRacePosition, Race2ndPodium, "2nd Place Prediction on Podium (%s)", driver)
		case i == 2 && actual < podiumSize:
			b.add(CategoryRacePosition, Race3rdPodium, "3rd Place Prediction on Podium (%s)", driver)
		case i >= 3 && actual < RaceSlots:
			b.add(CategoryRacePosition, Top5Correct, "Top 5 Correct Driver (%s)", driver)
		}
	}

	if exactPrefix(guesses, order, podiumSize) {
		b.add(CategoryBonus, PerfectPodium, "Perfect Podium Prediction")
	}
	if exactPrefix(guesses, order, RaceSlots) {
		b.add(CategoryBonus, PerfectTop5, "Perfect Top 5 Prediction")
	}
}

func scoreSprint(b *Breakdown, guesses, order []string) {
	idx := indexOf(order)
	for i := 0; i < min(len(guesses), SprintSlots); i++ {
		driver := guesses[i]
		if driver == "" {
			continue
		}
		actual, ok := idx[driver]
		if !ok {
			continue
		}

		if actual == i {
			switch i {
			case 0:
				b.add(CategorySprint, SprintWinner, "Sprint Winner (%s)", driver)
			case 1:
				b.add(CategorySprint, Sprint2ndExact, "Sprint 2nd Place (%s)", driver)
			case 2:
				b.add(CategorySprint, Sprint3rdExact, "Sprint 3rd Place (%s)", driver)
			}
			continue
		}

		if actual < podiumSize {
			switch i {
			case 1:
				b.add(CategorySprint, Sprint2ndPodium, "Sprint 2nd Prediction on Podium (%s)", driver)
			case 2:
				b.add(CategorySprint, Sprint3rdPodium, "Sprint 3rd Prediction on Podium (%s)", driver)
			}
		}
	}

	if exactPrefix(guesses, order, podiumSize) {
		b.add(CategorySprintBonus, PerfectSprintPodium, "Perfect Sprint Podium")
	}
}

// indexOf maps each driver to its first 0-based position in order.
func indexOf(order []string) map[string]int {
	idx := make(map[string]int, len(order))
	for i, d := range order {
		if _, seen := idx[d]; !seen && d != "" {
			idx[d] = i
		}
	}
	return idx
}

// exactPrefix reports whether the first n guesses all match order slot by slot.
func exactPrefix(guesses, order []string, n int) bool {
	if len(guesses) < n || len(order) < n {
		return false
	}
	for i := range n {
		if guesses[i] == "" || guesses[i] != order[i] {
			return false
		}
	}
	return true
}
