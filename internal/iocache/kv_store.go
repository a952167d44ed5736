package iocache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/huangsam/pantry/internal/contract"
	"github.com/huangsam/pantry/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// KVStoreImpl handles durable key-value operations using various database backends.
type KVStoreImpl struct {
	db        *sql.DB
	tableName string
	backend   schema.DatabaseBackend
	connStr   string
	now       func() time.Time
}

var _ contract.KVStore = &KVStoreImpl{} // Compile-time check

// NewKVStore initializes and returns a new KVStore based on the backend type.
func NewKVStore(tableName string, backend schema.DatabaseBackend, connStr string) (contract.KVStore, error) {
	// Validate table name to prevent SQL injection
	if err := validateTableName(tableName); err != nil {
		return nil, err
	}

	var db *sql.DB
	var err error

	switch backend {
	case schema.SQLiteBackend:
		dbPath := connStr
		if dbPath == "" {
			dbPath = GetDBFilePath()
		}
		db, err = sql.Open(driverName(backend), dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store at %q: %w. Ensure the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)

	case schema.MySQLBackend:
		// connStr should be:
		// user:password@tcp(host:port)/dbname
		db, err = sql.Open(driverName(backend), connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MySQL store: %w. Check connection format: user:password@tcp(host:port)/dbname", err)
		}

	case schema.PostgreSQLBackend:
		// connStr should be:
		// host=localhost port=5432 user=postgres password=mysecretpassword dbname=postgres
		db, err = sql.Open(driverName(backend), connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL store: %w. Check connection format: host=localhost port=5432 user=postgres dbname=mydb", err)
		}

	case schema.MemoryBackend:
		return NewMemoryStore(), nil

	case schema.NoneBackend:
		// Return a no-op store for disabled persistence
		return &KVStoreImpl{tableName: tableName, backend: backend, connStr: connStr, now: time.Now}, nil

	default:
		return nil, fmt.Errorf("unsupported store backend: %s. Must be sqlite, mysql, postgresql, memory, or none", backend)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database. Check that the server is running and connection parameters are valid: %w", backend, err)
	}

	if _, err := db.Exec(getCreateTableQuery(tableName, backend)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	return &KVStoreImpl{
		db:        db,
		tableName: tableName,
		backend:   backend,
		connStr:   connStr,
		now:       time.Now,
	}, nil
}

// getCreateTableQuery returns the CREATE TABLE query for the given backend.
// It must stay in sync with the first embedded migration.
func getCreateTableQuery(tableName string, backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(tableName, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				kv_key VARCHAR(255) PRIMARY KEY,
				kv_value LONGBLOB NOT NULL,
				kv_updated BIGINT NOT NULL
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				kv_key TEXT PRIMARY KEY,
				kv_value BYTEA NOT NULL,
				kv_updated BIGINT NOT NULL
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				kv_key TEXT PRIMARY KEY,
				kv_value BLOB NOT NULL,
				kv_updated INTEGER NOT NULL
			);
		`, quotedTableName)
	}
}

// disabled reports whether this store drops everything.
func (ps *KVStoreImpl) disabled() bool {
	return ps.backend == schema.NoneBackend || ps.db == nil
}

// Get retrieves a value by key from the store.
func (ps *KVStoreImpl) Get(ctx context.Context, key string) ([]byte, error) {
	if ps.disabled() {
		return nil, contract.ErrKeyNotFound
	}

	query := fmt.Sprintf(`SELECT kv_value FROM %s WHERE kv_key = %s`,
		quoteTableName(ps.tableName, ps.backend), ps.placeholder(1))

	var value []byte
	if err := ps.db.QueryRowContext(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, contract.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return value, nil
}

// Set inserts or replaces a key/value pair in the store.
func (ps *KVStoreImpl) Set(ctx context.Context, key string, value []byte) error {
	if ps.disabled() {
		return nil
	}
	if value == nil {
		value = []byte{}
	}
	if _, err := ps.db.ExecContext(ctx, ps.getUpsertQuery(), key, value, ps.now().UnixMilli()); err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

// SetBatch writes all entries in one transaction. Nil values delete their key.
func (ps *KVStoreImpl) SetBatch(ctx context.Context, entries map[string][]byte) error {
	if ps.disabled() || len(entries) == 0 {
		return nil
	}

	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	upsert := ps.getUpsertQuery()
	del := ps.getDeleteQuery()
	ts := ps.now().UnixMilli()

	// Deterministic order keeps lock acquisition consistent across writers.
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		v := entries[k]
		if v == nil {
			_, err = tx.ExecContext(ctx, del, k)
		} else {
			_, err = tx.ExecContext(ctx, upsert, k, v, ts)
		}
		if err != nil {
			return fmt.Errorf("failed to write key %q in batch: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// Delete removes keys from the store.
func (ps *KVStoreImpl) Delete(ctx context.Context, keys ...string) error {
	if ps.disabled() || len(keys) == 0 {
		return nil
	}
	entries := make(map[string][]byte, len(keys))
	for _, k := range keys {
		entries[k] = nil
	}
	return ps.SetBatch(ctx, entries)
}

// Keys lists keys starting with prefix in ascending order.
func (ps *KVStoreImpl) Keys(ctx context.Context, prefix string) ([]string, error) {
	if ps.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT kv_key FROM %s WHERE kv_key LIKE %s ESCAPE '!' ORDER BY kv_key`,
		quoteTableName(ps.tableName, ps.backend), ps.placeholder(1))
	rows, err := ps.db.QueryContext(ctx, query, prefixPattern(prefix))
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// placeholder returns the n-th parameter placeholder for the backend.
func (ps *KVStoreImpl) placeholder(n int) string {
	if ps.backend == schema.PostgreSQLBackend {
		return fmt.Sprintf("$%d", n)
	}
	return "?" // SQLite and MySQL
}

// getUpsertQuery returns the UPSERT query for the backend.
func (ps *KVStoreImpl) getUpsertQuery() string {
	quotedTableName := quoteTableName(ps.tableName, ps.backend)
	switch ps.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (kv_key, kv_value, kv_updated) VALUES (?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE kv_value = new.kv_value, kv_updated = new.kv_updated`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (kv_key, kv_value, kv_updated) VALUES ($1, $2, $3)
			ON CONFLICT (kv_key) DO UPDATE SET kv_value = EXCLUDED.kv_value, kv_updated = EXCLUDED.kv_updated`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (kv_key, kv_value, kv_updated) VALUES (?, ?, ?)`, quotedTableName)
	}
}

// getDeleteQuery returns the single-key DELETE query for the backend.
func (ps *KVStoreImpl) getDeleteQuery() string {
	return fmt.Sprintf(`DELETE FROM %s WHERE kv_key = %s`, quoteTableName(ps.tableName, ps.backend), ps.placeholder(1))
}

// Close closes the underlying DB connection.
func (ps *KVStoreImpl) Close() error {
	if ps.db != nil {
		return ps.db.Close()
	}
	return nil
}

// GetStatus returns status information about the store.
func (ps *KVStoreImpl) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:   string(ps.backend),
		Connected: ps.db != nil,
	}

	if ps.disabled() {
		return status, nil
	}

	quotedTableName := quoteTableName(ps.tableName, ps.backend)

	row := ps.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedTableName))
	if err := row.Scan(&status.TotalKeys); err != nil {
		return status, fmt.Errorf("failed to get total keys: %w", err)
	}

	status.SchemaVersion = ps.schemaVersion()

	if status.TotalKeys == 0 {
		return status, nil
	}

	var lastMs, oldestMs int64
	row = ps.db.QueryRow(fmt.Sprintf("SELECT MAX(kv_updated), MIN(kv_updated) FROM %s", quotedTableName))
	if err := row.Scan(&lastMs, &oldestMs); err != nil {
		return status, fmt.Errorf("failed to get write times: %w", err)
	}
	status.LastWriteTime = time.UnixMilli(lastMs)
	status.OldestWriteTime = time.UnixMilli(oldestMs)

	// Fallback rough estimate when the backend cannot report a size
	estimate := int64(status.TotalKeys) * 1000

	switch ps.backend {
	case schema.SQLiteBackend:
		row = ps.db.QueryRow("SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()")
		if err := row.Scan(&status.TableSizeBytes); err != nil {
			status.TableSizeBytes = 0
		}
	case schema.MySQLBackend:
		status.TableSizeBytes = estimate
		cfg, err := mysql.ParseDSN(ps.connStr)
		if err != nil || cfg.DBName == "" {
			break
		}
		row = ps.db.QueryRow("SELECT data_length + index_length FROM information_schema.tables WHERE table_schema = ? AND table_name = ?", cfg.DBName, ps.tableName)
		if err := row.Scan(&status.TableSizeBytes); err != nil {
			status.TableSizeBytes = estimate
		}
	case schema.PostgreSQLBackend:
		row = ps.db.QueryRow("SELECT pg_total_relation_size($1)", ps.tableName)
		if err := row.Scan(&status.TableSizeBytes); err != nil {
			status.TableSizeBytes = estimate
		}
	default:
		status.TableSizeBytes = estimate
	}

	return status, nil
}

// schemaVersion reads the golang-migrate version row, or 0 when migrations never ran.
func (ps *KVStoreImpl) schemaVersion() int {
	var version int
	if err := ps.db.QueryRow("SELECT version FROM schema_migrations LIMIT 1").Scan(&version); err != nil {
		return 0
	}
	return version
}
