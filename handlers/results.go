package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	"github.com/padraicbc/f1predict/apperr"
	"github.com/padraicbc/f1predict/models"
)

// finishingOrder accepts either an ordered array of driver codes or an array
// of {driverId, position} records.
type finishingOrder []models.DriverPosition

func (o *finishingOrder) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*o = nil
		return nil
	}

	var codes []string
	if err := json.Unmarshal(data, &codes); err == nil {
		out := make(finishingOrder, len(codes))
		for i, code := range codes {
			out[i] = models.DriverPosition{DriverID: code, Position: i + 1}
		}
		*o = out
		return nil
	}

	var records []models.DriverPosition
	if err := json.Unmarshal(data, &records); err == nil {
		*o = records
		return nil
	}

	return fmt.Errorf("expected an array of driver codes or of {driverId, position}")
}

type resultInput struct {
	PolePosition string         `json:"polePosition"`
	FastestLap   string         `json:"fastestLap"`
	RaceResult   finishingOrder `json:"raceResult"`
	SprintPole   string         `json:"sprintPolePosition"`
	SprintResult finishingOrder `json:"sprintResult"`
}

// normaliseOrder upper-cases codes and rejects unknown drivers, repeated
// drivers and repeated positions.
func normaliseOrder(name string, order finishingOrder, known map[string]bool) ([]models.DriverPosition, error) {
	seenDriver := map[string]bool{}
	seenPos := map[int]bool{}
	out := make([]models.DriverPosition, len(order))
	for i, dp := range order {
		dp.DriverID = strings.ToUpper(strings.TrimSpace(dp.DriverID))
		switch {
		case !known[dp.DriverID]:
			return nil, apperr.Newf(apperr.InvalidInput, "%s: unknown driver %q", name, dp.DriverID)
		case dp.Position < 1:
			return nil, apperr.Newf(apperr.InvalidInput, "%s: invalid position %d", name, dp.Position)
		case seenDriver[dp.DriverID]:
			return nil, apperr.Newf(apperr.InvalidInput, "%s: driver %s listed twice", name, dp.DriverID)
		case seenPos[dp.Position]:
			return nil, apperr.Newf(apperr.InvalidInput, "%s: position %d listed twice", name, dp.Position)
		}
		seenDriver[dp.DriverID] = true
		seenPos[dp.Position] = true
		out[i] = dp
	}
	return out, nil
}

func normaliseCode(name, code string, known map[string]bool) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code != "" && !known[code] {
		return "", apperr.Newf(apperr.InvalidInput, "%s: unknown driver %q", name, code)
	}
	return code, nil
}

func (h *Handler) knownDrivers(c echo.Context) (map[string]bool, error) {
	var ids []string
	err := h.db.NewSelect().Model((*models.Driver)(nil)).Column("id").Scan(c.Request().Context(), &ids)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}
	return known, nil
}

func (h *Handler) loadRace(c echo.Context, id int) (*models.Race, error) {
	race := &models.Race{}
	err := h.db.NewSelect().Model(race).Where("rc.id = ?", id).Scan(c.Request().Context())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, httpError(apperr.Newf(apperr.NotFound, "race %d not found", id))
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return race, nil
}

// RaceResults returns the stored result of a race.
func (h *Handler) RaceResults(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	res := &models.RaceResult{}
	err = h.db.NewSelect().Model(res).Where("rr.race_id = ?", id).Scan(c.Request().Context())
	if errors.Is(err, sql.ErrNoRows) {
		return httpError(apperr.Newf(apperr.NotFound, "race %d has no result", id))
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

// ImportResults stores the official result of a race, marks the race
// completed and recomputes its points before responding.
func (h *Handler) ImportResults(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var in resultInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	race, err := h.loadRace(c, id)
	if err != nil {
		return err
	}
	known, err := h.knownDrivers(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	res := &models.RaceResult{RaceID: race.ID}
	if len(in.RaceResult) == 0 {
		return badRequest("raceResult is required")
	}
	if res.RaceOrder, err = normaliseOrder("raceResult", in.RaceResult, known); err != nil {
		return httpError(err)
	}
	if res.PolePosition, err = normaliseCode("polePosition", in.PolePosition, known); err != nil {
		return httpError(err)
	}
	if res.FastestLap, err = normaliseCode("fastestLap", in.FastestLap, known); err != nil {
		return httpError(err)
	}
	if race.HasSprint {
		if res.SprintOrder, err = normaliseOrder("sprintResult", in.SprintResult, known); err != nil {
			return httpError(err)
		}
		if res.SprintPole, err = normaliseCode("sprintPolePosition", in.SprintPole, known); err != nil {
			return httpError(err)
		}
	} else if len(in.SprintResult) > 0 || in.SprintPole != "" {
		return badRequest("race %d has no sprint", race.ID)
	}

	ctx := c.Request().Context()
	err = h.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing := &models.RaceResult{}
		err := tx.NewSelect().Model(existing).Column("id").Where("rr.race_id = ?", race.ID).Scan(ctx)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if _, err := tx.NewInsert().Model(res).Exec(ctx); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			res.ID = existing.ID
			res.UpdatedAt = time.Now()
			_, err := tx.NewUpdate().Model(res).
				Column("pole_position", "fastest_lap", "race_result", "sprint_pole_position", "sprint_result", "updated_at").
				WherePK().
				Exec(ctx)
			if err != nil {
				return err
			}
		}

		_, err = tx.NewUpdate().Model((*models.Race)(nil)).
			Set("status = ?", models.RaceCompleted).
			Set("results_imported = ?", true).
			Where("id = ?", race.ID).
			Exec(ctx)
		return err
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	report, err := h.points.RecomputeRace(ctx, race.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError,
			fmt.Sprintf("results saved but points recompute failed: %s", apperr.Message(err)))
	}

	return c.JSON(http.StatusOK, map[string]any{
		"result": res,
		"points": report,
	})
}
