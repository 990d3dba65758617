package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/padraicbc/f1predict/config"
	"github.com/padraicbc/f1predict/models"
)

// Setup opens a database connection using the provided config and exits on failure.
func Setup(cfg *config.Config) *bun.DB {
	db, err := Open(cfg)
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}
	return db
}

// Open connects to the configured database and pings it.
func Open(cfg *config.Config) (*bun.DB, error) {
	var db *bun.DB
	switch cfg.DBDriver {
	case config.DriverMySQL:
		sqldb, err := sql.Open("mysql", cfg.DSN())
		if err != nil {
			return nil, err
		}
		db = bun.NewDB(sqldb, mysqldialect.New())
	case config.DriverSQLite:
		sqldb, err := sql.Open("sqlite3", cfg.DSN())
		if err != nil {
			return nil, err
		}
		// sqlite allows a single writer; one connection avoids "database is locked".
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	default:
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN())))
		db = bun.NewDB(sqldb, pgdialect.New())
	}

	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// CreateTables creates all tables in dependency order.
func CreateTables(ctx context.Context, db *bun.DB) error {
	tables := []interface{}{
		(*models.User)(nil),
		(*models.Driver)(nil),
		(*models.Race)(nil),
		(*models.RaceResult)(nil),
		(*models.Prediction)(nil),
	}

	for _, model := range tables {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("creating table for %T: %w", model, err)
		}
	}

	// The (user_id, race_id) unique key already serves lookups by user.
	_, err := db.NewCreateIndex().
		Model((*models.Prediction)(nil)).
		Index("predictions_race_id_idx").
		Column("race_id").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		// mysql has no CREATE INDEX IF NOT EXISTS; the index exists after the first run.
		log.Printf("index: %v", err)
	}

	return nil
}
