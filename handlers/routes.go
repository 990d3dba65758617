package handlers

import (
	"github.com/labstack/echo/v4"

	mw "github.com/padraicbc/f1predict/middleware"
)

// Register mounts the API under /api.
func (h *Handler) Register(e *echo.Echo) {
	api := e.Group("/api")

	// Public
	api.POST("/signin", h.Signin)
	api.GET("/drivers", h.Drivers)
	api.GET("/standings", h.Standings)

	// Protected – require valid JWT in Authorization header
	auth := api.Group("", mw.JWT(h.JWTKey))
	auth.GET("/races", h.Races)
	auth.GET("/races/user-points", h.UserRacePoints)
	auth.GET("/races/:id/results", h.RaceResults)
	auth.GET("/predictions", h.Predictions)
	auth.POST("/predictions", h.SavePrediction)
	auth.GET("/predictions/:id/points-breakdown", h.PointsBreakdown)

	admin := auth.Group("", mw.RequireAdmin)
	admin.POST("/races", h.CreateRace)
	admin.PUT("/races/:id/status", h.UpdateRaceStatus)
	admin.POST("/races/:id/results", h.ImportResults)
	admin.POST("/races/user-points/recalculate", h.RecalculateAll)
	admin.POST("/drivers", h.CreateDriver)
	admin.POST("/password-hash", h.PasswordHash)
}
