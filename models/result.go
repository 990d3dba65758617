package models

import (
	"time"

	"github.com/uptrace/bun"
)

// DriverPosition is one classified finisher of a race or sprint.
type DriverPosition struct {
	DriverID string `json:"driverId"`
	Position int    `json:"position"`
}

// RaceResult holds the official outcome of a race weekend. A race has at most one.
// SprintOrder is empty and SprintPole blank when the weekend had no sprint.
type RaceResult struct {
	bun.BaseModel `bun:"table:race_results,alias:rr"`

	ID           int              `bun:"id,pk,autoincrement" json:"id"`
	RaceID       int              `bun:"race_id,notnull,unique" json:"raceId"`
	PolePosition string           `bun:"pole_position,nullzero" json:"polePosition,omitempty"`
	FastestLap   string           `bun:"fastest_lap,nullzero" json:"fastestLap,omitempty"`
	RaceOrder    []DriverPosition `bun:"race_result" json:"raceResult"`
	SprintPole   string           `bun:"sprint_pole_position,nullzero" json:"sprintPolePosition,omitempty"`
	SprintOrder  []DriverPosition `bun:"sprint_result" json:"sprintResult,omitempty"`
	CreatedAt    time.Time        `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt    time.Time        `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`

	Race *Race `bun:"rel:belongs-to,join:race_id=id" json:"race,omitempty"`
}

// HasSprint reports whether sprint data was published with the result.
func (r *RaceResult) HasSprint() bool {
	return len(r.SprintOrder) > 0 || r.SprintPole != ""
}
