package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Race statuses.
const (
	RaceUpcoming  = "UPCOMING"
	RaceLive      = "LIVE"
	RaceCompleted = "COMPLETED"
)

// ValidRaceStatus reports whether s is one of the race statuses.
func ValidRaceStatus(s string) bool {
	return s == RaceUpcoming || s == RaceLive || s == RaceCompleted
}

// Race is a grand prix weekend.
type Race struct {
	bun.BaseModel `bun:"table:races,alias:rc"`

	ID              int       `bun:"id,pk,autoincrement" json:"id"`
	Name            string    `bun:"name,notnull" json:"name"`
	Season          int       `bun:"season,notnull,unique:races_season_round" json:"season"`
	Round           int       `bun:"round,notnull,unique:races_season_round" json:"round"`
	Circuit         string    `bun:"circuit,notnull" json:"circuit"`
	Date            time.Time `bun:"date,notnull" json:"date"`
	Status          string    `bun:"status,notnull,default:'UPCOMING'" json:"status"`
	HasSprint       bool      `bun:"has_sprint,notnull,default:false" json:"hasSprint"`
	ResultsImported bool      `bun:"results_imported,notnull,default:false" json:"resultsImported"`
}
