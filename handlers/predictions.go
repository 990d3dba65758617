package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	"github.com/padraicbc/f1predict/apperr"
	mw "github.com/padraicbc/f1predict/middleware"
	"github.com/padraicbc/f1predict/models"
	"github.com/padraicbc/f1predict/scoring"
)

type predictionInput struct {
	RaceID          int      `json:"raceId"`
	Positions       []string `json:"positions"`
	PolePosition    string   `json:"polePositionPrediction"`
	FastestLap      string   `json:"fastestLapPrediction"`
	SprintPositions []string `json:"sprintPositions"`
	SprintPole      string   `json:"sprintPolePrediction"`
}

// Predictions lists the caller's predictions, newest race first. Admins may
// pass ?userId= to list another user's.
func (h *Handler) Predictions(c echo.Context) error {
	raceID, hasRace, err := optionalInt(c, "raceId")
	if err != nil {
		return err
	}
	uid := mw.UserID(c)
	if other, ok, err := optionalInt(c, "userId"); err != nil {
		return err
	} else if ok && other != uid {
		if !mw.IsAdmin(c) {
			return httpError(apperr.Newf(apperr.Forbidden, "you can only view your own predictions"))
		}
		uid = other
	}

	var preds []models.Prediction
	q := h.db.NewSelect().Model(&preds).
		Relation("Race").
		Where("p.user_id = ?", uid).
		OrderExpr("race.season DESC, race.round DESC")
	if hasRace {
		q = q.Where("p.race_id = ?", raceID)
	}
	if err := q.Scan(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if preds == nil {
		preds = []models.Prediction{}
	}
	return c.JSON(http.StatusOK, preds)
}

func cleanCodes(codes []string) []string {
	out := make([]string, len(codes))
	for i, code := range codes {
		out[i] = strings.ToUpper(strings.TrimSpace(code))
	}
	return out
}

func validateSlots(name string, codes []string, maxLen int, known map[string]bool) error {
	if len(codes) > maxLen {
		return apperr.Newf(apperr.InvalidInput, "%s: at most %d drivers", name, maxLen)
	}
	seen := map[string]bool{}
	for _, code := range codes {
		if !known[code] {
			return apperr.Newf(apperr.InvalidInput, "%s: unknown driver %q", name, code)
		}
		if seen[code] {
			return apperr.Newf(apperr.InvalidInput, "%s: driver %s listed twice", name, code)
		}
		seen[code] = true
	}
	return nil
}

// SavePrediction creates or replaces the caller's prediction for an upcoming race.
func (h *Handler) SavePrediction(c echo.Context) error {
	var in predictionInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if in.RaceID < 1 || len(in.Positions) == 0 {
		return badRequest("raceId and positions are required")
	}

	race, err := h.loadRace(c, in.RaceID)
	if err != nil {
		return err
	}
	if race.ResultsImported {
		return httpError(apperr.Newf(apperr.Conflict, "race %d already has results; predictions are closed", race.ID))
	}
	if race.Status != models.RaceUpcoming {
		return badRequest("predictions can only be made for upcoming races")
	}
	known, err := h.knownDrivers(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	pred := &models.Prediction{
		UserID:          mw.UserID(c),
		RaceID:          race.ID,
		Positions:       cleanCodes(in.Positions),
		SprintPositions: cleanCodes(in.SprintPositions),
	}
	if err := validateSlots("positions", pred.Positions, scoring.RaceSlots, known); err != nil {
		return httpError(err)
	}
	if pred.PolePosition, err = normaliseCode("polePositionPrediction", in.PolePosition, known); err != nil {
		return httpError(err)
	}
	if pred.FastestLap, err = normaliseCode("fastestLapPrediction", in.FastestLap, known); err != nil {
		return httpError(err)
	}
	if race.HasSprint {
		if err := validateSlots("sprintPositions", pred.SprintPositions, scoring.SprintSlots, known); err != nil {
			return httpError(err)
		}
		if pred.SprintPole, err = normaliseCode("sprintPolePrediction", in.SprintPole, known); err != nil {
			return httpError(err)
		}
	} else if len(in.SprintPositions) > 0 || in.SprintPole != "" {
		return badRequest("race %d has no sprint", race.ID)
	}
	if len(pred.SprintPositions) == 0 {
		pred.SprintPositions = nil
	}

	ctx := c.Request().Context()
	status := http.StatusCreated
	err = h.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		open, err := tx.NewSelect().Model((*models.Race)(nil)).
			Where("id = ? AND status = ? AND results_imported = ?", race.ID, models.RaceUpcoming, false).
			Exists(ctx)
		if err != nil {
			return err
		}
		if !open {
			return apperr.Newf(apperr.Conflict, "race %d closed for predictions", race.ID)
		}

		existing := &models.Prediction{}
		err = tx.NewSelect().Model(existing).
			Where("p.user_id = ? AND p.race_id = ?", pred.UserID, pred.RaceID).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			_, err = tx.NewInsert().Model(pred).Exec(ctx)
			return err
		}
		if err != nil {
			return err
		}

		status = http.StatusOK
		pred.ID = existing.ID
		pred.Points = existing.Points
		pred.CreatedAt = existing.CreatedAt
		pred.UpdatedAt = time.Now()
		_, err = tx.NewUpdate().Model(pred).
			Column("positions", "pole_position", "fastest_lap", "sprint_positions", "sprint_pole", "updated_at").
			WherePK().
			Exec(ctx)
		return err
	})
	if apperr.Code(err) != "" {
		return httpError(err)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(status, pred)
}
