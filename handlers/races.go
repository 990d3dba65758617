package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/f1predict/apperr"
	mw "github.com/padraicbc/f1predict/middleware"
	"github.com/padraicbc/f1predict/models"
)

// Races lists races, newest season first, optionally filtered by ?season= and ?status=.
func (h *Handler) Races(c echo.Context) error {
	season, hasSeason, err := optionalInt(c, "season")
	if err != nil {
		return err
	}
	status := strings.ToUpper(c.QueryParam("status"))
	if status != "" && !models.ValidRaceStatus(status) {
		return badRequest("invalid status %q", status)
	}

	var races []models.Race
	q := h.db.NewSelect().Model(&races).OrderExpr("rc.season DESC, rc.round ASC")
	if hasSeason {
		q = q.Where("rc.season = ?", season)
	}
	if status != "" {
		q = q.Where("rc.status = ?", status)
	}
	if err := q.Scan(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if races == nil {
		races = []models.Race{}
	}
	return c.JSON(http.StatusOK, races)
}

type racePoints struct {
	models.Race
	UserPoints int `json:"userPoints"`
}

// UserRacePoints lists races with the caller's points for each, 0 where
// they made no prediction.
func (h *Handler) UserRacePoints(c echo.Context) error {
	season, hasSeason, err := optionalInt(c, "season")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	var races []models.Race
	q := h.db.NewSelect().Model(&races).OrderExpr("rc.season DESC, rc.round ASC")
	if hasSeason {
		q = q.Where("rc.season = ?", season)
	}
	if err := q.Scan(ctx); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var preds []models.Prediction
	err = h.db.NewSelect().Model(&preds).
		Column("race_id", "points").
		Where("p.user_id = ?", mw.UserID(c)).
		Scan(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	byRace := make(map[int]int, len(preds))
	for _, p := range preds {
		byRace[p.RaceID] = p.Points
	}

	out := make([]racePoints, len(races))
	for i, r := range races {
		out[i] = racePoints{Race: r, UserPoints: byRace[r.ID]}
	}
	return c.JSON(http.StatusOK, out)
}

// CreateRace adds a race, UPCOMING unless a status is given.
func (h *Handler) CreateRace(c echo.Context) error {
	var in struct {
		Name      string    `json:"name"`
		Season    int       `json:"season"`
		Round     int       `json:"round"`
		Circuit   string    `json:"circuit"`
		Date      time.Time `json:"date"`
		Status    string    `json:"status"`
		HasSprint bool      `json:"hasSprint"`
	}
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	race := &models.Race{
		Name:      strings.TrimSpace(in.Name),
		Season:    in.Season,
		Round:     in.Round,
		Circuit:   strings.TrimSpace(in.Circuit),
		Date:      in.Date,
		Status:    strings.ToUpper(in.Status),
		HasSprint: in.HasSprint,
	}
	if race.Status == "" {
		race.Status = models.RaceUpcoming
	}
	switch {
	case race.Name == "" || race.Circuit == "" || race.Date.IsZero():
		return badRequest("name, circuit and date are required")
	case race.Season < 1950 || race.Round < 1:
		return badRequest("invalid season or round")
	case !models.ValidRaceStatus(race.Status):
		return badRequest("invalid status %q", race.Status)
	}

	ctx := c.Request().Context()
	exists, err := h.db.NewSelect().Model((*models.Race)(nil)).
		Where("season = ? AND round = ?", race.Season, race.Round).
		Exists(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if exists {
		return httpError(apperr.Newf(apperr.Conflict, "round %d of season %d already exists", race.Round, race.Season))
	}

	if _, err := h.db.NewInsert().Model(race).Exec(ctx); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, race)
}

// UpdateRaceStatus sets a race's status. A race whose result has been
// imported cannot go back to UPCOMING, which would reopen its predictions.
func (h *Handler) UpdateRaceStatus(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var in struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	status := strings.ToUpper(strings.TrimSpace(in.Status))
	if !models.ValidRaceStatus(status) {
		return badRequest("invalid status %q", in.Status)
	}

	race, err := h.loadRace(c, id)
	if err != nil {
		return err
	}
	reopened := httpError(apperr.Newf(apperr.Conflict, "race %d has imported results and cannot be reopened", id))
	if status == models.RaceUpcoming && race.ResultsImported {
		return reopened
	}

	ctx := c.Request().Context()
	q := h.db.NewUpdate().Model((*models.Race)(nil)).
		Set("status = ?", status).
		Where("id = ?", id)
	if status == models.RaceUpcoming {
		// an import committed since the load above must still win
		q = q.Where("results_imported = ?", false)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return reopened
	}

	race.Status = status
	return c.JSON(http.StatusOK, race)
}
