package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/storagetest"
)

func TestSQLiteStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		// Create temp directory for test database
		dbPath := filepath.Join(t.TempDir(), "test.db")
		store, err := New(context.Background(), dbPath)
		if err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}
		t.Cleanup(func() { store.Close() })
		return store
	})
}

func TestInMemoryDatabase(t *testing.T) {
	store, err := New(context.Background(), ":memory:")
	require.NoError(t, err)
	defer store.Close()

	_, err = store.ListBalances(context.Background(), "none")
	assert.NoError(t, err)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "ledger.db")

	first, err := New(context.Background(), dbPath)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := New(context.Background(), dbPath)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestIsBusy(t *testing.T) {
	assert.False(t, isBusy(nil))
	assert.False(t, isBusy(errors.New("database is locked")))
}

func TestIsUniqueViolation(t *testing.T) {
	store, err := New(context.Background(), ":memory:")
	require.NoError(t, err)
	defer store.Close()

	insert := `INSERT INTO users (id, email, display_name, password_hash, created_at, updated_at)
		VALUES (?, 'dup@example.com', 'Dup', 'x', 0, 0)`
	_, err = store.DB().ExecContext(context.Background(), insert, "u1")
	require.NoError(t, err)
	_, err = store.DB().ExecContext(context.Background(), insert, "u2")
	require.Error(t, err)

	assert.True(t, isUniqueViolation(err))
	assert.False(t, isBusy(err))
	assert.False(t, isUniqueViolation(nil))
	assert.False(t, isUniqueViolation(errors.New("UNIQUE constraint failed")))
}
