package handlers

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/f1predict/apperr"
	"github.com/padraicbc/f1predict/models"
)

var driverCode = regexp.MustCompile(`^[A-Z]{3}$`)

// Drivers lists drivers. Without filters only active drivers are returned,
// ordered by number; ?active= and ?team= filter and order by team.
func (h *Handler) Drivers(c echo.Context) error {
	active, team := c.QueryParam("active"), c.QueryParam("team")

	var drivers []models.Driver
	q := h.db.NewSelect().Model(&drivers)
	if active == "" && team == "" {
		q = q.Where("d.active = ?", true).OrderExpr("d.number ASC")
	} else {
		if active != "" {
			q = q.Where("d.active = ?", active == "true")
		}
		if team != "" {
			q = q.Where("d.team = ?", team)
		}
		q = q.OrderExpr("d.team ASC, d.number ASC")
	}

	if err := q.Scan(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if drivers == nil {
		drivers = []models.Driver{}
	}
	return c.JSON(http.StatusOK, drivers)
}

// CreateDriver adds a driver keyed by its three-letter code.
func (h *Handler) CreateDriver(c echo.Context) error {
	var in struct {
		Code     string `json:"code"`
		Number   int    `json:"number"`
		FullName string `json:"fullname"`
		Team     string `json:"team"`
		Active   *bool  `json:"active"`
	}
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	d := &models.Driver{
		ID:       strings.ToUpper(strings.TrimSpace(in.Code)),
		Number:   in.Number,
		FullName: strings.TrimSpace(in.FullName),
		Team:     strings.TrimSpace(in.Team),
		Active:   in.Active == nil || *in.Active,
	}
	if !driverCode.MatchString(d.ID) {
		return badRequest("driver code must be three letters")
	}
	if d.Number < 1 || d.FullName == "" || d.Team == "" {
		return badRequest("number, fullname and team are required")
	}

	ctx := c.Request().Context()
	exists, err := h.db.NewSelect().Model((*models.Driver)(nil)).
		Where("id = ? OR number = ?", d.ID, d.Number).
		Exists(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if exists {
		return httpError(apperr.Newf(apperr.Conflict, "a driver with code %s or number %d already exists", d.ID, d.Number))
	}

	if _, err := h.db.NewInsert().Model(d).Exec(ctx); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, d)
}
