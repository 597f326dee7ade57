package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgconn"
	_ "github.com/jackc/pgx/v4/stdlib"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"

	pgUniqueViolation = "23505"

	sqliteTimeLayout = "2006-01-02 15:04:05.000000000"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE CHECK (length(username) <= 100),
	password TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'ROLE_CUSTOMER' CHECK (role IN ('ROLE_ADMIN', 'ROLE_CUSTOMER')),
	created_at DATETIME NOT NULL,
	modified_at DATETIME,
	created_by TEXT,
	modified_by TEXT
);

CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	username VARCHAR(100) NOT NULL UNIQUE,
	password VARCHAR(200) NOT NULL,
	role VARCHAR(25) NOT NULL DEFAULT 'ROLE_CUSTOMER' CHECK (role IN ('ROLE_ADMIN', 'ROLE_CUSTOMER')),
	created_at TIMESTAMPTZ NOT NULL,
	modified_at TIMESTAMPTZ,
	created_by VARCHAR(100),
	modified_by VARCHAR(100)
);

CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);
`

// dialect holds the few things that differ between the supported drivers.
// Placeholders are handled by sqlx.Rebind.
type dialect struct {
	driver            string
	schema            string
	isUniqueViolation func(error) bool
	timeArg           func(time.Time) any
}

var dialects = map[string]*dialect{
	DriverSQLite: {
		driver:            DriverSQLite,
		schema:            sqliteSchema,
		isUniqueViolation: isSQLiteUniqueViolation,
		// Datetimes are stored as fixed-width UTC text so that string
		// comparison in filters orders them chronologically.
		timeArg: func(t time.Time) any { return t.UTC().Format(sqliteTimeLayout) },
	},
	DriverPostgres: {
		driver:            DriverPostgres,
		schema:            postgresSchema,
		isUniqueViolation: isPostgresUniqueViolation,
		timeArg:           func(t time.Time) any { return t.UTC() },
	},
}

func lookupDialect(driver string) (*dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}
	return d, nil
}

func isSQLiteUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	if se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	// Without extended result codes only the primary code is reported.
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE constraint failed")
}

func isPostgresUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
