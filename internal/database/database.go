package database

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/config"
)

func Connect() (*sqlx.DB, error) {
	return Open(config.DBDriver(), config.DBDSN())
}

// Open connects with the given driver ("pgx" or "sqlite3"). SQLite connections
// always enforce foreign keys and take the write lock when a transaction
// begins, so read-then-write transactions cannot interleave.
func Open(driver, dsn string) (*sqlx.DB, error) {
	if driver == "sqlite3" {
		dsn = withParam(dsn, "_foreign_keys", "on")
		dsn = withParam(dsn, "_txlock", "immediate")
	}
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	return db, nil
}

// withParam appends key=value to a SQLite DSN unless key is already set.
func withParam(dsn, key, value string) string {
	if strings.Contains(dsn, key+"=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + key + "=" + value
}

// Migrate creates every table the service needs. It is idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	stmts := postgresSchema
	if db.DriverName() == "sqlite3" {
		stmts = sqliteSchema
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return tx.Commit()
}
