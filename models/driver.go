package models

import "github.com/uptrace/bun"

// Driver is keyed by its three-letter code, the identifier used in
// predictions and results.
type Driver struct {
	bun.BaseModel `bun:"table:drivers,alias:d"`

	ID       string `bun:"id,pk" json:"id"`
	Number   int    `bun:"number,notnull" json:"number"`
	FullName string `bun:"fullname,notnull" json:"fullname"`
	Team     string `bun:"team,notnull" json:"team"`
	Active   bool   `bun:"active,notnull,default:true" json:"active"`
}
