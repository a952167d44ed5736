//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/huangsam/pantry/internal/contract"
	"github.com/huangsam/pantry/internal/iocache"
	"github.com/huangsam/pantry/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startMySQL(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "pantry",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mysqlC.Terminate(ctx) })

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	return fmt.Sprintf("root:secret123@tcp(%s:%s)/pantry?parseTime=true", host, port.Port())
}

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port())
}

// exerciseKVStore checks the store contract directly against a live backend.
func exerciseKVStore(t *testing.T, backend schema.DatabaseBackend, connStr string) {
	ctx := context.Background()

	store, err := iocache.NewKVStore("pantry_kv_direct", backend, connStr)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, contract.ErrKeyNotFound)

	require.NoError(t, store.Set(ctx, "favorites.ids", []byte(`["1"]`)))
	require.NoError(t, store.Set(ctx, "favorites.ids", []byte(`["1","2"]`))) // upsert

	got, err := store.Get(ctx, "favorites.ids")
	require.NoError(t, err)
	assert.JSONEq(t, `["1","2"]`, string(got))

	require.NoError(t, store.SetBatch(ctx, map[string][]byte{
		"favorites.recipes": []byte(`[]`),
		"favorites.ids":     nil,
		"session.user":      []byte(`{"id":"u"}`),
	}))
	_, err = store.Get(ctx, "favorites.ids")
	assert.ErrorIs(t, err, contract.ErrKeyNotFound)

	keys, err := store.Keys(ctx, "favorites.")
	require.NoError(t, err)
	assert.Equal(t, []string{"favorites.recipes"}, keys)

	n, err := iocache.ClearPrefix(ctx, store, "favorites.")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 1, status.TotalKeys)
}

// TestPantryWithMySQL tests the store and the CLI with a MySQL backend.
func TestPantryWithMySQL(t *testing.T) {
	connStr := startMySQL(t)

	exerciseKVStore(t, schema.MySQLBackend, connStr)

	env := []string{"PANTRY_STORE_BACKEND=mysql", "PANTRY_STORE_DB_CONNECT=" + connStr}
	_, err := runPantry(t, env, "store", "clear")
	require.NoError(t, err)
	_, err = runPantry(t, env, "store", "migrate")
	require.NoError(t, err)

	exerciseFavoritesFlow(t, env)

	out, err := runPantry(t, env, "store", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "mysql")
}

// TestPantryWithPostgres tests the store and the CLI with a PostgreSQL backend.
func TestPantryWithPostgres(t *testing.T) {
	connStr := startPostgres(t)

	exerciseKVStore(t, schema.PostgreSQLBackend, connStr)

	env := []string{"PANTRY_STORE_BACKEND=postgresql", "PANTRY_STORE_DB_CONNECT=" + connStr}
	_, err := runPantry(t, env, "store", "clear")
	require.NoError(t, err)
	_, err = runPantry(t, env, "store", "migrate")
	require.NoError(t, err)

	exerciseFavoritesFlow(t, env)

	_, err = runPantry(t, env, "store", "migrate", "--target-version", "1")
	require.NoError(t, err)
}
