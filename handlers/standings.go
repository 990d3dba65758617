package handlers

import (
	"cmp"
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/padraicbc/f1predict/models"
)

const topRaceCount = 5

type topRace struct {
	RaceID   int    `json:"raceId"`
	RaceName string `json:"raceName"`
	Round    int    `json:"round"`
	Season   int    `json:"season"`
	Points   int    `json:"points"`
}

type standing struct {
	Position          int       `json:"position"`
	UserID            int       `json:"userId"`
	Name              string    `json:"name"`
	Username          string    `json:"username"`
	TotalPoints       int       `json:"totalPoints"`
	RacesParticipated int       `json:"racesParticipated"`
	AveragePoints     float64   `json:"averagePoints"`
	TopRaces          []topRace `json:"topRaces"`
}

// averagePoints rounds total/races to two decimals, 0 without races.
func averagePoints(total, races int) float64 {
	if races == 0 {
		return 0
	}
	return decimal.NewFromInt(int64(total)).
		Div(decimal.NewFromInt(int64(races))).
		Round(2).
		InexactFloat64()
}

// Standings ranks users by the points of their predictions for completed
// races, optionally limited to ?season=.
func (h *Handler) Standings(c echo.Context) error {
	season, hasSeason, err := optionalInt(c, "season")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	var users []models.User
	if err := h.db.NewSelect().Model(&users).OrderExpr("u.id ASC").Scan(ctx); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var preds []models.Prediction
	q := h.db.NewSelect().Model(&preds).
		Relation("Race").
		Where("race.status = ?", models.RaceCompleted)
	if hasSeason {
		q = q.Where("race.season = ?", season)
	}
	if err := q.Scan(ctx); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	byUser := lo.GroupBy(preds, func(p models.Prediction) int { return p.UserID })

	out := lo.Map(users, func(u models.User, _ int) standing {
		mine := byUser[u.ID]
		// summed per season; across all seasons it equals users.total_points
		// since only imported races carry points and those stay completed
		total := lo.SumBy(mine, func(p models.Prediction) int { return p.Points })

		slices.SortStableFunc(mine, func(a, b models.Prediction) int { return cmp.Compare(b.Points, a.Points) })
		top := lo.Map(mine[:min(len(mine), topRaceCount)], func(p models.Prediction, _ int) topRace {
			return topRace{
				RaceID:   p.RaceID,
				RaceName: p.Race.Name,
				Round:    p.Race.Round,
				Season:   p.Race.Season,
				Points:   p.Points,
			}
		})

		return standing{
			UserID:            u.ID,
			Name:              u.Name,
			Username:          u.Username,
			TotalPoints:       total,
			RacesParticipated: len(mine),
			AveragePoints:     averagePoints(total, len(mine)),
			TopRaces:          top,
		}
	})

	slices.SortStableFunc(out, func(a, b standing) int { return cmp.Compare(b.TotalPoints, a.TotalPoints) })
	for i := range out {
		out[i].Position = i + 1
	}
	return c.JSON(http.StatusOK, out)
}
