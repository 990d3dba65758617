package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_NAME", "league")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("RECALC_CRON", " 0 0 6 * * * ")
	t.Setenv("TLS_DOMAINS", "a.example, ,b.example")

	cfg := Load()
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "file:league.db?_foreign_keys=on", cfg.DSN())
	assert.Equal(t, "0 0 6 * * *", cfg.RecalcCron)
	assert.Equal(t, 4, cfg.RecalcWorkers)
	assert.Equal(t, []string{"a.example", "b.example"}, cfg.TLSDomains)
	assert.True(t, cfg.Metrics)
	assert.Equal(t, []byte("s3cret"), cfg.JWTKey())
}

func TestDSN(t *testing.T) {
	base := Config{DBUser: "u", DBPass: "p", DBHost: "h", DBPort: "1", DBName: "n", DBSSLMode: "disable"}

	pg := base
	pg.DBDriver = DriverPostgres
	assert.Equal(t, "postgres://u:p@h:1/n?sslmode=disable", pg.DSN())

	my := base
	my.DBDriver = DriverMySQL
	assert.Equal(t, "u:p@tcp(h:1)/n?parseTime=true&clientFoundRows=true", my.DSN())

	url := base
	url.DatabaseURL = "postgres://elsewhere"
	assert.Equal(t, "postgres://elsewhere", url.DSN())
}

func TestValidate(t *testing.T) {
	ok := Config{DBDriver: DriverPostgres, DBPass: "p", JWTSecret: "k", RecalcWorkers: 1}
	require.NoError(t, ok.Validate())

	tests := map[string]func(c *Config){
		"missing password": func(c *Config) { c.DBPass = "" },
		"missing secret":   func(c *Config) { c.JWTSecret = "" },
		"unknown driver":   func(c *Config) { c.DBDriver = "oracle" },
		"no workers":       func(c *Config) { c.RecalcWorkers = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := ok
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
