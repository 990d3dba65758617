package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Prediction is one user's guesses for one race. Points is derived from the
// race result by the points recompute and never edited directly.
type Prediction struct {
	bun.BaseModel `bun:"table:predictions,alias:p"`

	ID              int       `bun:"id,pk,autoincrement" json:"id"`
	UserID          int       `bun:"user_id,notnull,unique:predictions_user_race" json:"userId"`
	RaceID          int       `bun:"race_id,notnull,unique:predictions_user_race" json:"raceId"`
	Positions       []string  `bun:"positions" json:"positions"`
	PolePosition    string    `bun:"pole_position,nullzero" json:"polePositionPrediction,omitempty"`
	FastestLap      string    `bun:"fastest_lap,nullzero" json:"fastestLapPrediction,omitempty"`
	SprintPositions []string  `bun:"sprint_positions" json:"sprintPositions,omitempty"`
	SprintPole      string    `bun:"sprint_pole,nullzero" json:"sprintPolePrediction,omitempty"`
	Points          int       `bun:"points,notnull,default:0" json:"points"`
	CreatedAt       time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt       time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`

	User *User `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Race *Race `bun:"rel:belongs-to,join:race_id=id" json:"race,omitempty"`
}
