// Package testdb provides an in-memory SQLite database with the application
// schema for tests, plus helpers that insert sample rows.
package testdb

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/uptrace/bun"

	"github.com/padraicbc/f1predict/config"
	bundb "github.com/padraicbc/f1predict/db"
	"github.com/padraicbc/f1predict/models"
)

// New opens a fresh in-memory database private to t and creates all tables.
func New(t testing.TB) *bun.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	cfg := &config.Config{
		DBDriver:    config.DriverSQLite,
		DatabaseURL: "file:" + name + "?mode=memory&cache=shared",
	}
	db, err := bundb.Open(cfg)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := bundb.CreateTables(context.Background(), db); err != nil {
		t.Fatalf("create tables: %v", err)
	}
	return db
}

func insert(t testing.TB, db bun.IDB, model any) {
	t.Helper()
	if _, err := db.NewInsert().Model(model).Exec(context.Background()); err != nil {
		t.Fatalf("insert %T: %v", model, err)
	}
}

// User inserts a user with the given role.
func User(t testing.TB, db bun.IDB, username, role string) *models.User {
	u := &models.User{Username: username, Name: username, Password: "x", Role: role}
	insert(t, db, u)
	return u
}

// Drivers inserts active drivers with the given codes.
func Drivers(t testing.TB, db bun.IDB, codes ...string) {
	for i, code := range codes {
		insert(t, db, &models.Driver{ID: code, Number: i + 1, FullName: code, Team: "Team " + code, Active: true})
	}
}

// Race inserts a race in the given status.
func Race(t testing.TB, db bun.IDB, round int, status string, sprint bool) *models.Race {
	r := &models.Race{
		Name:      "Grand Prix " + string(rune('A'+round-1)),
		Season:    2025,
		Round:     round,
		Circuit:   "Circuit",
		Date:      time.Date(2025, 3, 2*round, 15, 0, 0, 0, time.UTC),
		Status:    status,
		HasSprint: sprint,
	}
	insert(t, db, r)
	return r
}

// Result inserts a result with the main race order given winner first.
func Result(t testing.TB, db bun.IDB, raceID int, order ...string) *models.RaceResult {
	rr := &models.RaceResult{RaceID: raceID, RaceOrder: Order(order...)}
	insert(t, db, rr)
	return rr
}

// Prediction inserts a prediction for the given slots.
func Prediction(t testing.TB, db bun.IDB, userID, raceID int, positions ...string) *models.Prediction {
	p := &models.Prediction{UserID: userID, RaceID: raceID, Positions: positions}
	insert(t, db, p)
	return p
}

// Order numbers ids from position 1.
func Order(ids ...string) []models.DriverPosition {
	out := make([]models.DriverPosition, len(ids))
	for i, id := range ids {
		out[i] = models.DriverPosition{DriverID: id, Position: i + 1}
	}
	return out
}
