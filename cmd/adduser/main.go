// cmd/adduser/main.go
// Creates or updates a user in the database.
//
// Usage:
//
//	go run ./cmd/adduser -username padraic -password testing -name "Padraic" -role ADMIN
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/padraicbc/f1predict/config"
	bundb "github.com/padraicbc/f1predict/db"
	"github.com/padraicbc/f1predict/handlers"
	"github.com/padraicbc/f1predict/models"
)

func main() {
	username := flag.String("username", "", "username (required)")
	password := flag.String("password", "", "plain-text password (required)")
	name := flag.String("name", "", "display name (defaults to username)")
	role := flag.String("role", models.RoleUser, "USER or ADMIN")
	flag.Parse()

	r := strings.ToUpper(*role)
	if r != models.RoleUser && r != models.RoleAdmin {
		log.Fatalf("unknown role %q", *role)
	}

	hash, err := handlers.HashPasswordForUser(*username, *password)
	if err != nil {
		log.Fatal(err)
	}

	cfg := config.Load()
	db := bundb.Setup(cfg)
	defer db.Close()

	ctx := context.Background()
	if err := bundb.CreateTables(ctx, db); err != nil {
		log.Fatal("create tables:", err)
	}

	user := &models.User{
		Username: strings.TrimSpace(*username),
		Name:     strings.TrimSpace(*name),
		Password: hash,
		Role:     r,
	}
	if user.Name == "" {
		user.Name = user.Username
	}

	if err := saveUser(ctx, db, user); err != nil {
		log.Fatal("insert user:", err)
	}

	fmt.Printf("user %q saved as %s\n", user.Username, user.Role)
}

// saveUser inserts the user or updates name, password and role of an existing one.
func saveUser(ctx context.Context, db *bun.DB, user *models.User) error {
	q := db.NewInsert().Model(user)
	if db.Dialect().Name() == dialect.MySQL {
		q = q.On("DUPLICATE KEY UPDATE").
			Set("name = VALUES(name)").
			Set("password = VALUES(password)").
			Set("role = VALUES(role)")
	} else {
		q = q.On("CONFLICT (username) DO UPDATE").
			Set("name = EXCLUDED.name").
			Set("password = EXCLUDED.password").
			Set("role = EXCLUDED.role")
	}
	_, err := q.Exec(ctx)
	return err
}
