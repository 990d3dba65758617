package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	"github.com/padraicbc/f1predict/apperr"
	"github.com/padraicbc/f1predict/points"
)

// Handler holds shared dependencies used by all route handlers.
type Handler struct {
	db     *bun.DB
	points *points.Service
	JWTKey []byte
}

// New creates a Handler with the given database connection, points service
// and JWT signing key.
func New(db *bun.DB, svc *points.Service, jwtKey []byte) *Handler {
	return &Handler{db: db, points: svc, JWTKey: jwtKey}
}

// httpError turns an apperr into the matching echo error.
func httpError(err error) error {
	return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
}

func badRequest(format string, args ...any) error {
	return httpError(apperr.Newf(apperr.InvalidInput, format, args...))
}

func idParam(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// optionalInt parses an optional integer query parameter.
func optionalInt(c echo.Context, name string) (int, bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, badRequest("invalid %s param", name)
	}
	return n, true, nil
}
