// cmd/seed/main.go
// Loads drivers, races and users from a JSON file. Rows that already exist
// are left alone, so the seed can be re-run.
//
// Usage:
//
//	go run ./cmd/seed -file seed.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/uptrace/bun"

	"github.com/padraicbc/f1predict/config"
	bundb "github.com/padraicbc/f1predict/db"
	"github.com/padraicbc/f1predict/handlers"
	"github.com/padraicbc/f1predict/models"
)

const batchSize = 500

type seedUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type seedFile struct {
	Drivers []models.Driver `json:"drivers"`
	Races   []models.Race   `json:"races"`
	Users   []seedUser      `json:"users"`
}

func main() {
	path := flag.String("file", "seed.json", "seed data file")
	flag.Parse()

	data, err := readSeed(*path)
	if err != nil {
		log.Fatal(err)
	}

	cfg := config.Load()
	db := bundb.Setup(cfg)
	defer db.Close()

	ctx := context.Background()
	if err := bundb.CreateTables(ctx, db); err != nil {
		log.Fatalf("create tables: %v", err)
	}

	counts, err := seed(ctx, db, data)
	if err != nil {
		log.Fatal(err)
	}
	for _, c := range counts {
		log.Printf("%-10s %d rows offered", c.name, c.n)
	}
	log.Println("seed complete")
}

func readSeed(path string) (*seedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data seedFile
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &data, nil
}

type count struct {
	name string
	n    int
}

func seed(ctx context.Context, db *bun.DB, data *seedFile) ([]count, error) {
	users, err := hashUsers(data.Users)
	if err != nil {
		return nil, err
	}
	for i := range data.Drivers {
		data.Drivers[i].ID = strings.ToUpper(data.Drivers[i].ID)
	}
	for i := range data.Races {
		if data.Races[i].Status == "" {
			data.Races[i].Status = models.RaceUpcoming
		}
	}

	steps := []struct {
		name string
		fn   func() (int, error)
	}{
		{"drivers", func() (int, error) { return insertBatches(ctx, db, data.Drivers) }},
		{"races", func() (int, error) { return insertBatches(ctx, db, data.Races) }},
		{"users", func() (int, error) { return insertBatches(ctx, db, users) }},
	}

	var out []count
	for _, s := range steps {
		n, err := s.fn()
		if err != nil {
			return out, fmt.Errorf("seed %s: %w", s.name, err)
		}
		out = append(out, count{s.name, n})
	}
	return out, nil
}

func hashUsers(in []seedUser) ([]models.User, error) {
	out := make([]models.User, 0, len(in))
	for _, u := range in {
		hash, err := handlers.HashPasswordForUser(u.Username, u.Password)
		if err != nil {
			return nil, fmt.Errorf("user %q: %w", u.Username, err)
		}
		role := strings.ToUpper(u.Role)
		if role == "" {
			role = models.RoleUser
		}
		name := u.Name
		if name == "" {
			name = u.Username
		}
		out = append(out, models.User{Username: u.Username, Name: name, Password: hash, Role: role})
	}
	return out, nil
}

// insertBatches inserts rows batchSize at a time, skipping rows that collide
// with an existing key.
func insertBatches[T any](ctx context.Context, db *bun.DB, rows []T) (int, error) {
	total := 0
	for start := 0; start < len(rows); start += batchSize {
		batch := rows[start:min(start+batchSize, len(rows))]
		if _, err := db.NewInsert().Model(&batch).Ignore().Exec(ctx); err != nil {
			return total, err
		}
		total += len(batch)
	}
	return total, nil
}
