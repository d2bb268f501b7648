package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Driver names a supported SQL backend. The values are the database/sql
// driver names.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// ParseDriver maps a config value to a Driver. Empty means SQLite.
func ParseDriver(s string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "postgres", "postgresql", "pg":
		return DriverPostgres, nil
	case "mysql", "mariadb":
		return DriverMySQL, nil
	}
	return "", fmt.Errorf("unsupported driver: %s", s)
}

// DB wraps the SQL connection and the dialect it speaks.
type DB struct {
	conn   *sql.DB
	driver Driver
}

// OpenSQLite opens (or creates) the SQLite file at path.
func OpenSQLite(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return Open(DriverSQLite, path+"?_journal_mode=WAL&_busy_timeout=5000")
}

// Open connects to dsn with the given driver and applies migrations.
func Open(driver Driver, dsn string) (*DB, error) {
	conn, err := sql.Open(string(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// SQLite only supports one writer
		conn.SetMaxOpenConns(1)
	}

	db := &DB{conn: conn, driver: driver}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) Driver() Driver {
	return db.driver
}

// ── Dialect helpers ──────────────────────────────────────────

// rebind rewrites ? placeholders into $n for Postgres.
func (db *DB) rebind(q string) string {
	if db.driver != DriverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (db *DB) exec(q string, args ...any) (sql.Result, error) {
	return db.conn.Exec(db.rebind(q), args...)
}

func (db *DB) query(q string, args ...any) (*sql.Rows, error) {
	return db.conn.Query(db.rebind(q), args...)
}

func (db *DB) queryRow(q string, args ...any) *sql.Row {
	return db.conn.QueryRow(db.rebind(q), args...)
}

// upsert builds an insert that overwrites cols on a key conflict.
func (db *DB) upsert(table, key string, cols ...string) string {
	all := append([]string{key}, cols...)
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(all)), ", ")
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(all, ", "), marks)

	sets := make([]string, len(cols))
	for i, c := range cols {
		if db.driver == DriverMySQL {
			sets[i] = fmt.Sprintf("%s = VALUES(%s)", c, c)
		} else {
			sets[i] = fmt.Sprintf("%s = excluded.%s", c, c)
		}
	}
	if db.driver == DriverMySQL {
		return q + " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	}
	return q + fmt.Sprintf(" ON CONFLICT(%s) DO UPDATE SET ", key) + strings.Join(sets, ", ")
}

// ── Migrations ───────────────────────────────────────────────

func (db *DB) migrate() error {
	key, doc := "TEXT", "TEXT"
	if db.driver == DriverMySQL {
		key, doc = "VARCHAR(64)", "LONGTEXT"
	}
	types := strings.NewReplacer("{key}", key, "{doc}", doc)

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id {key} PRIMARY KEY,
			name TEXT NOT NULL,
			screen_count INTEGER NOT NULL DEFAULT 0,
			data {doc} NOT NULL,
			updated_at BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS history_entries (
			id {key} PRIMARY KEY,
			project_id {key} NOT NULL,
			seq BIGINT NOT NULL,
			snapshot {doc} NOT NULL,
			created_at BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX idx_history_project ON history_entries(project_id, seq)`,
		`CREATE TABLE IF NOT EXISTS app_settings (
			setting_key {key} PRIMARY KEY,
			setting_value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS mcp_approvals (
			id {key} PRIMARY KEY,
			tool TEXT NOT NULL,
			description TEXT NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'pending',
			metadata TEXT NOT NULL,
			created_at BIGINT NOT NULL DEFAULT 0
		)`,
	}

	for _, m := range migrations {
		m = types.Replace(m)
		if strings.HasPrefix(m, "CREATE INDEX") && db.driver != DriverMySQL {
			m = strings.Replace(m, "CREATE INDEX", "CREATE INDEX IF NOT EXISTS", 1)
		}
		if _, err := db.conn.Exec(m); err != nil {
			// MySQL has no CREATE INDEX IF NOT EXISTS
			if strings.Contains(err.Error(), "Duplicate key name") {
				continue
			}
			return fmt.Errorf("migration failed: %s: %w", m[:40], err)
		}
	}
	return nil
}
