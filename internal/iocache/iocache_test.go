package iocache

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/huangsam/pantry/internal/contract"
	"github.com/huangsam/pantry/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) (contract.KVStore, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "pantry.db")
	store, err := NewKVStore(kvTable, schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, dbPath
}

// exerciseStore runs the shared KVStore behavior against any implementation.
func exerciseStore(t *testing.T, store contract.KVStore) {
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, contract.ErrKeyNotFound)

	require.NoError(t, store.Set(ctx, "favorites.ids", []byte(`["1","2"]`)))
	got, err := store.Get(ctx, "favorites.ids")
	require.NoError(t, err)
	assert.Equal(t, `["1","2"]`, string(got))

	// Overwrite
	require.NoError(t, store.Set(ctx, "favorites.ids", []byte(`["1"]`)))
	got, err = store.Get(ctx, "favorites.ids")
	require.NoError(t, err)
	assert.Equal(t, `["1"]`, string(got))

	// Batch writes and deletes together
	require.NoError(t, store.SetBatch(ctx, map[string][]byte{
		"favorites.ids":     nil,
		"favorites.recipes": []byte(`[]`),
		"session.user":      []byte(`{"id":"u1"}`),
	}))
	_, err = store.Get(ctx, "favorites.ids")
	assert.ErrorIs(t, err, contract.ErrKeyNotFound)

	keys, err := store.Keys(ctx, "favorites.")
	require.NoError(t, err)
	assert.Equal(t, []string{"favorites.recipes"}, keys)

	all, err := store.Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"favorites.recipes", "session.user"}, all)

	require.NoError(t, store.Delete(ctx, "session.user", "never.there"))
	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 1, status.TotalKeys)
	assert.False(t, status.LastWriteTime.IsZero())
}

func TestSQLiteStore(t *testing.T) {
	store, _ := newSQLiteStore(t)
	exerciseStore(t, store)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	value := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", value))
	value[0] = 'z'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestSQLiteKeysEscapesWildcards(t *testing.T) {
	ctx := context.Background()
	store, _ := newSQLiteStore(t)
	require.NoError(t, store.Set(ctx, "a_b", []byte("1")))
	require.NoError(t, store.Set(ctx, "axb", []byte("2")))
	require.NoError(t, store.Set(ctx, "a%c", []byte("3")))

	keys, err := store.Keys(ctx, "a_")
	require.NoError(t, err)
	assert.Equal(t, []string{"a_b"}, keys)

	keys, err = store.Keys(ctx, "a%")
	require.NoError(t, err)
	assert.Equal(t, []string{"a%c"}, keys)
}

func TestNoneStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewKVStore(kvTable, schema.NoneBackend, "")
	require.NoError(t, err)

	assert.NoError(t, store.Set(ctx, "k", []byte("v")))
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, contract.ErrKeyNotFound)
	keys, err := store.Keys(ctx, "")
	assert.NoError(t, err)
	assert.Empty(t, keys)

	status, err := store.GetStatus()
	assert.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestNewKVStoreErrors(t *testing.T) {
	_, err := NewKVStore("bad;table", schema.SQLiteBackend, "")
	assert.Error(t, err)

	_, err = NewKVStore(kvTable, schema.DatabaseBackend("oracle"), "")
	assert.Error(t, err)
}

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain", "pantry_kv", false},
		{"leading underscore", "_kv", false},
		{"empty", "", true},
		{"leading digit", "1kv", true},
		{"injection", "kv; DROP TABLE users", true},
		{"dash", "pantry-kv", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, "`pantry_kv`", quoteTableName("pantry_kv", schema.MySQLBackend))
	assert.Equal(t, `"pantry_kv"`, quoteTableName("pantry_kv", schema.PostgreSQLBackend))
	assert.Equal(t, `"pantry_kv"`, quoteTableName("pantry_kv", schema.SQLiteBackend))
}

func TestPrefixPattern(t *testing.T) {
	assert.Equal(t, "favorites.%", prefixPattern("favorites."))
	assert.Equal(t, "a!_b!%!!%", prefixPattern("a_b%!"))
	assert.Equal(t, "%", prefixPattern(""))
}

func TestStoreLifecycle(t *testing.T) {
	t.Run("memory setup", func(t *testing.T) {
		initOnce = sync.Once{}  // Reset for test
		closeOnce = sync.Once{} // Reset for test

		require.NoError(t, InitStore(schema.MemoryBackend, ""))
		assert.NotNil(t, Manager.GetStore())

		// Subsequent calls are no-ops
		assert.NoError(t, InitStore(schema.SQLiteBackend, "/nonexistent/dir/x.db"))
		_, ok := Manager.GetStore().(*MemoryStore)
		assert.True(t, ok)

		CloseStore()
		CloseStore()
	})

	t.Run("bad backend", func(t *testing.T) {
		initOnce = sync.Once{}  // Reset for test
		closeOnce = sync.Once{} // Reset for test
		Manager = &StoreManagerImpl{}

		assert.Error(t, InitStore(schema.DatabaseBackend("oracle"), ""))
		assert.Nil(t, Manager.GetStore())
	})
}

func TestClearStore(t *testing.T) {
	store, dbPath := newSQLiteStore(t)
	require.NoError(t, store.Set(context.Background(), "k", []byte("v")))
	require.NoError(t, store.Close())

	require.NoError(t, ClearStore(schema.SQLiteBackend, dbPath, ""))
	_, err := os.Stat(dbPath)
	assert.True(t, os.IsNotExist(err))

	// Missing file is fine
	assert.NoError(t, ClearStore(schema.SQLiteBackend, dbPath, ""))
	assert.Error(t, ClearStore(schema.SQLiteBackend, "", ""))
	assert.NoError(t, ClearStore(schema.NoneBackend, "", ""))
	assert.NoError(t, ClearStore(schema.MemoryBackend, "", ""))
}

func TestClearPrefix(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, "favorites.ids", []byte("[]")))
	require.NoError(t, store.Set(ctx, "favorites.recipes", []byte("[]")))
	require.NoError(t, store.Set(ctx, "session.user", []byte("{}")))

	n, err := ClearPrefix(ctx, store, "favorites.")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	keys, _ := store.Keys(ctx, "")
	assert.Equal(t, []string{"session.user"}, keys)
}

func TestMigrateStoreSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate.db")
	var out bytes.Buffer

	require.NoError(t, MigrateStore(&out, schema.SQLiteBackend, dbPath, -1))
	assert.Contains(t, out.String(), "to version 2")

	out.Reset()
	require.NoError(t, MigrateStore(&out, schema.SQLiteBackend, dbPath, -1))
	assert.Contains(t, out.String(), "already at the latest version")

	store, err := NewKVStore(kvTable, schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, LatestSchemaVersion, status.SchemaVersion)
	require.NoError(t, store.Close())

	out.Reset()
	require.NoError(t, MigrateStore(&out, schema.SQLiteBackend, dbPath, 1))
	assert.Contains(t, out.String(), "to version 1")

	out.Reset()
	require.NoError(t, MigrateStore(&out, schema.SQLiteBackend, dbPath, 0))
	assert.Contains(t, out.String(), "to version 0")

	assert.Error(t, MigrateStore(&out, schema.SQLiteBackend, dbPath, 99))
	assert.Error(t, MigrateStore(&out, schema.NoneBackend, "", -1))
	assert.Error(t, MigrateStore(&out, schema.MemoryBackend, "", -1))
}

func TestPrintStoreStatus(t *testing.T) {
	var out bytes.Buffer
	PrintStoreStatus(&out, schema.StoreStatus{Backend: "none"})
	assert.Contains(t, out.String(), "Store Backend: none")
	assert.NotContains(t, out.String(), "Total Keys")

	out.Reset()
	PrintStoreStatus(&out, schema.StoreStatus{Backend: "sqlite", Connected: true, TotalKeys: 0, SchemaVersion: 2})
	assert.Contains(t, out.String(), "Schema Version: 2")
	assert.Contains(t, out.String(), "Total Keys: 0")
}
