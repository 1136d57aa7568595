// Package storetest opens throwaway ledger databases for tests.
package storetest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/registru/internal/store"
)

// Open returns a migrated in-memory sqlite database closed at test cleanup.
func Open(t testing.TB) *store.DB {
	t.Helper()
	db, err := store.Open(store.Options{Driver: store.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
