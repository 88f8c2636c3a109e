// Package dbtest connects repository tests to a real PostgreSQL.
//
// Tests are skipped unless DB_HOST_TEST is set. The remaining parameters fall back
// to localhost defaults.
package dbtest

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/bookstore/internal/config"
	"github.com/vasiliy-maslov/bookstore/internal/db"
)

var (
	migrateOnce sync.Once
	migrateErr  error
)

func Config() (config.PostgresConfig, bool) {
	host := os.Getenv("DB_HOST_TEST")
	if host == "" {
		return config.PostgresConfig{}, false
	}

	return config.PostgresConfig{
		Host:            host,
		Port:            getEnv("DB_PORT_TEST", "5432"),
		User:            getEnv("DB_USER_TEST", "postgres"),
		Password:        getEnv("DB_PASSWORD_TEST", "123456"),
		DBName:          getEnv("DB_NAME_TEST", "bookstore_test"),
		SSLMode:         getEnv("DB_SSLMODE_TEST", "disable"),
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
	}, true
}

// Open returns a migrated, empty database or skips the test.
func Open(t *testing.T) *db.Postgres {
	t.Helper()

	cfg, ok := Config()
	if !ok {
		t.Skip("DB_HOST_TEST is not set, skipping PostgreSQL test")
	}

	migrateOnce.Do(func() {
		migrateErr = db.Migrate(cfg)
	})
	require.NoError(t, migrateErr, "failed to migrate test database")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pg, err := db.New(ctx, cfg)
	require.NoError(t, err, "failed to connect to test database")

	Truncate(t, pg)
	t.Cleanup(func() {
		Truncate(t, pg)
		pg.Close()
	})

	return pg
}

func Truncate(tb testing.TB, pg *db.Postgres) {
	tb.Helper()
	_, err := pg.Exec(context.Background(),
		"TRUNCATE TABLE order_items, orders, favorites, cart_items, identities, users, books RESTART IDENTITY CASCADE")
	require.NoError(tb, err, "failed to truncate tables")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
