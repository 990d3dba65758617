package points

import (
	"github.com/padraicbc/f1predict/models"
	"github.com/padraicbc/f1predict/scoring"
)

// PredictionFor converts a stored prediction into scoring input.
func PredictionFor(p *models.Prediction) scoring.Prediction {
	return scoring.Prediction{
		Positions:       p.Positions,
		Pole:            p.PolePosition,
		FastestLap:      p.FastestLap,
		SprintPositions: p.SprintPositions,
		SprintPole:      p.SprintPole,
	}
}

// ResultFor converts a stored race result into scoring input. Sprint data is
// only attached when the result carries any.
func ResultFor(r *models.RaceResult) scoring.Result {
	res := scoring.Result{
		Pole:       r.PolePosition,
		FastestLap: r.FastestLap,
		Order:      scoring.OrderOf(placings(r.RaceOrder)),
	}
	if r.HasSprint() {
		res.Sprint = &scoring.SprintResult{
			Pole:  r.SprintPole,
			Order: scoring.OrderOf(placings(r.SprintOrder)),
		}
	}
	return res
}

func placings(dps []models.DriverPosition) []scoring.Placing {
	out := make([]scoring.Placing, len(dps))
	for i, dp := range dps {
		out[i] = scoring.Placing{DriverID: dp.DriverID, Position: dp.Position}
	}
	return out
}
