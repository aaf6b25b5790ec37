package database

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/yourusername/spread-edge/internal/config"
)

// TestDatabaseEnv names the environment variable that enables integration tests
const TestDatabaseEnv = "SPREAD_EDGE_TEST_DB_HOST"

// SetupTestDB connects to the integration database and applies the schema.
// The test is skipped when SPREAD_EDGE_TEST_DB_HOST is unset.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	host := os.Getenv(TestDatabaseEnv)
	if host == "" {
		t.Skipf("%s not set, skipping database integration test", TestDatabaseEnv)
	}

	port, _ := strconv.Atoi(envOr("SPREAD_EDGE_TEST_DB_PORT", "5432"))
	cfg := &config.DatabaseConfig{
		Host:           host,
		Port:           port,
		Name:           envOr("SPREAD_EDGE_TEST_DB_NAME", "spread_edge_test"),
		User:           envOr("SPREAD_EDGE_TEST_DB_USER", "postgres"),
		Password:       os.Getenv("SPREAD_EDGE_TEST_DB_PASSWORD"),
		SSLMode:        "disable",
		MaxConnections: 4,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := NewDB(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}

	if _, err := db.Migrate(ctx); err != nil {
		db.Close()
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() { TeardownTestDB(t, db) })
	return db
}

// TeardownTestDB truncates the tables and closes the connection
func TeardownTestDB(t *testing.T, db *DB) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.Exec(ctx, "TRUNCATE games, market_lines, team_seasons, backtest_results"); err != nil {
		t.Logf("warning: failed to truncate test tables: %v", err)
	}
	db.Close()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
