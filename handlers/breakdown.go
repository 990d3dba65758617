package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/f1predict/apperr"
	mw "github.com/padraicbc/f1predict/middleware"
	"github.com/padraicbc/f1predict/scoring"
)

type breakdownPrediction struct {
	ID          int    `json:"id"`
	UserID      int    `json:"userId"`
	UserName    string `json:"userName,omitempty"`
	RaceID      int    `json:"raceId"`
	RaceName    string `json:"raceName,omitempty"`
	Round       int    `json:"round,omitempty"`
	TotalPoints int    `json:"totalPoints"`
}

type breakdownResponse struct {
	Prediction      breakdownPrediction `json:"prediction"`
	PointsBreakdown scoring.Breakdown   `json:"pointsBreakdown"`
	CalculatedAt    time.Time           `json:"calculatedAt"`
}

// PointsBreakdown itemises how a prediction scores against its race result.
// Only the owner or an admin may view it.
func (h *Handler) PointsBreakdown(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	pred, b, err := h.points.Breakdown(c.Request().Context(), id)
	if pred == nil {
		return httpError(err)
	}
	if pred.UserID != mw.UserID(c) && !mw.IsAdmin(c) {
		return httpError(apperr.Newf(apperr.Forbidden, "you can only view your own predictions"))
	}
	if err != nil {
		return httpError(err)
	}

	summary := breakdownPrediction{
		ID:          pred.ID,
		UserID:      pred.UserID,
		RaceID:      pred.RaceID,
		TotalPoints: pred.Points,
	}
	if pred.User != nil {
		summary.UserName = pred.User.Name
	}
	if pred.Race != nil {
		summary.RaceName = pred.Race.Name
		summary.Round = pred.Race.Round
	}

	return c.JSON(http.StatusOK, breakdownResponse{
		Prediction:      summary,
		PointsBreakdown: b,
		CalculatedAt:    time.Now().UTC(),
	})
}
