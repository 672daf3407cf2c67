package history

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/loykin/apismoke/internal/constants"
)

// Dialect hides the differences between the supported databases.
type Dialect interface {
	Name() string
	// SQLDriver is the database/sql driver name.
	SQLDriver() string
	Placeholder(n int) string
	EnsureStatements(t TableNames) []string
	TimeValue(t time.Time) any
	BoolValue(b bool) any
	ConfigurePool(db *sql.DB)
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return DriverSQLite }

func (sqliteDialect) SQLDriver() string { return "sqlite" }

func (sqliteDialect) Placeholder(int) string { return "?" }

func (sqliteDialect) TimeValue(t time.Time) any { return t.UTC().Format(time.RFC3339Nano) }

func (sqliteDialect) BoolValue(b bool) any {
	if b {
		return 1
	}
	return 0
}

// A single writer avoids SQLITE_BUSY between the run and step inserts.
func (sqliteDialect) ConfigurePool(db *sql.DB) {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(constants.DefaultSQLiteLifetime)
}

func (sqliteDialect) EnsureStatements(t TableNames) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	suite TEXT NOT NULL,
	passed INTEGER NOT NULL,
	started_at TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	failed_step TEXT NULL,
	error_kind TEXT NULL,
	warnings INTEGER NOT NULL DEFAULT 0
)`, t.SuiteRuns),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id INTEGER NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	name TEXT NOT NULL,
	outcome TEXT NOT NULL,
	kind TEXT NULL,
	message TEXT NULL,
	duration_ms INTEGER NOT NULL,
	cleanup INTEGER NOT NULL DEFAULT 0
)`, t.StepRuns, t.SuiteRuns),
	}
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return DriverPostgres }

func (postgresDialect) SQLDriver() string { return "pgx" }

func (postgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (postgresDialect) TimeValue(t time.Time) any { return t.UTC() }

func (postgresDialect) BoolValue(b bool) any { return b }

func (postgresDialect) ConfigurePool(db *sql.DB) {
	db.SetMaxOpenConns(constants.DefaultPostgresMaxConnections)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(constants.DefaultMaxConnLifetime)
	db.SetConnMaxIdleTime(time.Minute)
}

func (postgresDialect) EnsureStatements(t TableNames) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	suite TEXT NOT NULL,
	passed BOOLEAN NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	duration_ms BIGINT NOT NULL,
	failed_step TEXT NULL,
	error_kind TEXT NULL,
	warnings INTEGER NOT NULL DEFAULT 0
)`, t.SuiteRuns),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	run_id BIGINT NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	name TEXT NOT NULL,
	outcome TEXT NOT NULL,
	kind TEXT NULL,
	message TEXT NULL,
	duration_ms BIGINT NOT NULL,
	cleanup BOOLEAN NOT NULL DEFAULT FALSE
)`, t.StepRuns, t.SuiteRuns),
	}
}

// DialectFor maps a configured driver name to its dialect. Empty means sqlite.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "", DriverSQLite, "sqlite3":
		return sqliteDialect{}, nil
	case DriverPostgres, "postgresql", "pgx":
		return postgresDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported history driver %q", driver)
	}
}

// Values come back as string/[]byte/time.Time depending on driver and column type.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if ts, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return ts
		}
	case []byte:
		if ts, err := time.Parse(time.RFC3339Nano, string(t)); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func parseBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case int64:
		return b != 0
	case int:
		return b != 0
	case []byte:
		return string(b) == "1" || string(b) == "true"
	case string:
		return b == "1" || b == "true"
	}
	return false
}
