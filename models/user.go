package models

import "github.com/uptrace/bun"

// Roles a user can hold.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User is a player with bcrypt-hashed password and the derived points total.
// TotalPoints is only ever written by the points recompute.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID          int    `bun:"id,pk,autoincrement" json:"id"`
	Username    string `bun:"username,notnull,unique" json:"username"`
	Name        string `bun:"name,notnull,default:''" json:"name"`
	Password    string `bun:"password,notnull" json:"-"`
	Role        string `bun:"role,notnull,default:'USER'" json:"role"`
	TotalPoints int    `bun:"total_points,notnull,default:0" json:"totalPoints"`
}

// IsAdmin reports whether the user may run administrative actions.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
