package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/padraicbc/f1predict/models"
	"github.com/padraicbc/f1predict/testsupport/testdb"
)

const sample = `{
  "drivers": [
    {"id": "ver", "number": 1, "fullname": "Max Verstappen", "team": "Red Bull", "active": true},
    {"id": "NOR", "number": 4, "fullname": "Lando Norris", "team": "McLaren", "active": true}
  ],
  "races": [
    {"name": "Bahrain Grand Prix", "season": 2025, "round": 1, "circuit": "Sakhir", "date": "2025-03-02T15:00:00Z"},
    {"name": "Chinese Grand Prix", "season": 2025, "round": 2, "circuit": "Shanghai", "date": "2025-03-23T07:00:00Z", "hasSprint": true}
  ],
  "users": [
    {"username": "admin", "password": "pw", "role": "admin"},
    {"username": "alice", "password": "pw", "name": "Alice"}
  ]
}`

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)

	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	for range 2 {
		data, err := readSeed(path)
		require.NoError(t, err)
		_, err = seed(ctx, db, data)
		require.NoError(t, err)
	}

	n, err := db.NewSelect().Model((*models.Driver)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var races []models.Race
	require.NoError(t, db.NewSelect().Model(&races).OrderExpr("rc.round").Scan(ctx))
	require.Len(t, races, 2)
	assert.Equal(t, models.RaceUpcoming, races[0].Status)
	assert.True(t, races[1].HasSprint)

	var users []models.User
	require.NoError(t, db.NewSelect().Model(&users).OrderExpr("u.username").Scan(ctx))
	require.Len(t, users, 2)
	assert.True(t, users[0].IsAdmin())
	assert.Equal(t, "alice", users[1].Username)
	assert.Equal(t, "Alice", users[1].Name)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users[1].Password), []byte("pw")))

	var ver models.Driver
	require.NoError(t, db.NewSelect().Model(&ver).Where("d.id = ?", "VER").Scan(ctx))
	assert.Equal(t, "Max Verstappen", ver.FullName)
}

func TestReadSeedErrors(t *testing.T) {
	_, err := readSeed(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err = readSeed(path)
	assert.Error(t, err)
}
