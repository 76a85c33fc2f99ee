package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/domain"
)

type Repos struct {
	db       *sqlx.DB
	Meters   *MeterStore
	Groups   *GroupStore
	Maps     *MapStore
	Users    *UserStore
	Readings *ReadingStore
}

func New(db *sqlx.DB) *Repos {
	return &Repos{
		db:       db,
		Meters:   &MeterStore{db: db},
		Groups:   &GroupStore{db: db},
		Maps:     &MapStore{db: db},
		Users:    &UserStore{db: db},
		Readings: &ReadingStore{db: db},
	}
}

// withTx runs fn inside a transaction, committing only if fn succeeds.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// nameConflict converts a unique violation on an entity's name into a ConstraintError.
func nameConflict(err error, entity, name string) error {
	if isUniqueViolation(err) {
		return &domain.ConstraintError{Entity: entity, Field: "name", Value: name, Err: err}
	}
	return err
}

func notFound(err error, what string, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", what, id, domain.ErrNotFound)
	}
	return err
}

func insertReturningID(ctx context.Context, ext sqlx.ExtContext, query string, args ...any) (int64, error) {
	var id int64
	err := ext.QueryRowxContext(ctx, ext.Rebind(query+` RETURNING id`), args...).Scan(&id)
	return id, err
}

// execOne executes a statement that must touch exactly one row.
func execOne(ctx context.Context, ext sqlx.ExtContext, what string, id int64, query string, args ...any) error {
	res, err := ext.ExecContext(ctx, ext.Rebind(query), args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, domain.ErrNotFound)
	}
	return nil
}

func pointFrom(lat, lon *float64) *domain.Point {
	if lat == nil || lon == nil {
		return nil
	}
	// Stored coordinates were validated on the way in.
	p, err := domain.NewPoint(*lat, *lon)
	if err != nil {
		return nil
	}
	return &p
}

func pointCols(p *domain.Point) (lat, lon *float64) {
	if p == nil {
		return nil, nil
	}
	la, lo := p.Latitude(), p.Longitude()
	return &la, &lo
}
