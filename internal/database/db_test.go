package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCreatesCacheSchema(t *testing.T) {
	db, err := New(Config{
		Path:    filepath.Join(t.TempDir(), "cache.db"),
		Profile: ProfileCache,
		Name:    "cache",
	})
	require.NoError(t, err)
	defer db.Close()

	// All cache tables exist
	for _, table := range []string{"fred_series", "yahoo_history", "yahoo_quotes", "news_headlines", "credit_memos"} {
		var name string
		err := db.Conn().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "missing table %s", table)
	}
}

func TestNewFailsOnUnusablePath(t *testing.T) {
	// A directory cannot be opened as a database file; New must surface
	// the ping failure instead of returning a half-initialized handle.
	db, err := New(Config{
		Path:    t.TempDir(),
		Profile: ProfileCache,
		Name:    "cache",
	})
	require.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "cache")
}

func TestNewCreatesPortfolioSchema(t *testing.T) {
	db, err := New(Config{
		Path:    filepath.Join(t.TempDir(), "portfolio.db"),
		Profile: ProfileStandard,
		Name:    "portfolio",
	})
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Conn().Exec(
		"INSERT INTO transactions (id, symbol, action, quantity, price, executed_at) VALUES (?, ?, ?, ?, ?, ?)",
		"t1", "AAPL", "buy", 10.0, 150.0, 1700000000,
	)
	require.NoError(t, err)

	// CHECK constraint rejects unknown actions
	_, err = db.Conn().Exec(
		"INSERT INTO transactions (id, symbol, action, quantity, price, executed_at) VALUES (?, ?, ?, ?, ?, ?)",
		"t2", "AAPL", "short", 10.0, 150.0, 1700000000,
	)
	assert.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := New(Config{
		Path:    filepath.Join(t.TempDir(), "cache.db"),
		Profile: ProfileCache,
		Name:    "cache",
	})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Migrate())
	require.NoError(t, db.Migrate())
}

func TestUnknownNameSkipsMigration(t *testing.T) {
	db, err := New(Config{
		Path: filepath.Join(t.TempDir(), "other.db"),
		Name: "other",
	})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, "other", db.Name())
}
