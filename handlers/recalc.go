package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/padraicbc/f1predict/apperr"
)

// RecalculateAll recomputes the points of every scored race. Races that fail
// are listed in the summary; the rest are committed regardless.
func (h *Handler) RecalculateAll(c echo.Context) error {
	sum, err := h.points.RecomputeAll(c.Request().Context())
	if err != nil && len(sum.Races) == 0 {
		return echo.NewHTTPError(http.StatusInternalServerError, apperr.Message(err))
	}
	if err != nil {
		zap.L().Warn("recalculate finished with failures", zap.Ints("failed", sum.Failed))
	}

	status, msg := http.StatusOK, "user points recalculated"
	if len(sum.Failed) > 0 {
		status, msg = http.StatusInternalServerError, "some races failed to recalculate"
	}
	return c.JSON(status, map[string]any{
		"message":   msg,
		"summary":   sum,
		"timestamp": time.Now().UTC(),
	})
}
