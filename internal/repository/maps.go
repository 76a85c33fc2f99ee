package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/domain"
)

type MapStore struct {
	db *sqlx.DB
}

const mapColumns = `id, name, displayable, note, filename, modified_date, origin_latitude, origin_longitude,
	opposite_latitude, opposite_longitude, map_source, north_angle, max_circle_size_fraction`

type mapRow struct {
	ID                    int64    `db:"id"`
	Name                  string   `db:"name"`
	Displayable           bool     `db:"displayable"`
	Note                  *string  `db:"note"`
	Filename              string   `db:"filename"`
	ModifiedDate          string   `db:"modified_date"`
	OriginLatitude        *float64 `db:"origin_latitude"`
	OriginLongitude       *float64 `db:"origin_longitude"`
	OppositeLatitude      *float64 `db:"opposite_latitude"`
	OppositeLongitude     *float64 `db:"opposite_longitude"`
	MapSource             string   `db:"map_source"`
	NorthAngle            *int     `db:"north_angle"`
	MaxCircleSizeFraction *int     `db:"max_circle_size_fraction"`
}

func (r mapRow) toDomain() domain.Map {
	return domain.Map{
		ID:                    r.ID,
		Name:                  r.Name,
		Displayable:           r.Displayable,
		Note:                  r.Note,
		Filename:              r.Filename,
		ModifiedDate:          r.ModifiedDate,
		Origin:                pointFrom(r.OriginLatitude, r.OriginLongitude),
		Opposite:              pointFrom(r.OppositeLatitude, r.OppositeLongitude),
		MapSource:             r.MapSource,
		NorthAngle:            r.NorthAngle,
		MaxCircleSizeFraction: r.MaxCircleSizeFraction,
	}
}

func mapArgs(m *domain.Map) []any {
	oLat, oLon := pointCols(m.Origin)
	pLat, pLon := pointCols(m.Opposite)
	return []any{
		m.Name, m.Displayable, m.Note, m.Filename, m.ModifiedDate, oLat, oLon, pLat, pLon,
		m.MapSource, m.NorthAngle, m.MaxCircleSizeFraction,
	}
}

// Insert validates the corner pairing, stores the map and sets its ID.
func (s *MapStore) Insert(ctx context.Context, m *domain.Map) error {
	if err := m.Validate(); err != nil {
		return err
	}
	var id int64
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var err error
		id, err = insertReturningID(ctx, tx, `INSERT INTO maps(name, displayable, note, filename, modified_date,
			origin_latitude, origin_longitude, opposite_latitude, opposite_longitude, map_source, north_angle,
			max_circle_size_fraction) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`, mapArgs(m)...)
		return err
	})
	if err != nil {
		return fmt.Errorf("insert map: %w", nameConflict(err, "Map", m.Name))
	}
	m.ID = id
	return nil
}

func (s *MapStore) Update(ctx context.Context, m *domain.Map) error {
	if err := m.Validate(); err != nil {
		return err
	}
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return execOne(ctx, tx, "map", m.ID, `UPDATE maps SET name = ?, displayable = ?, note = ?, filename = ?,
			modified_date = ?, origin_latitude = ?, origin_longitude = ?, opposite_latitude = ?, opposite_longitude = ?,
			map_source = ?, north_angle = ?, max_circle_size_fraction = ? WHERE id = ?`, append(mapArgs(m), m.ID)...)
	})
	if err != nil {
		return fmt.Errorf("update map: %w", nameConflict(err, "Map", m.Name))
	}
	return nil
}

// Delete removes a map by id. Deleting a missing id is not an error.
func (s *MapStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM maps WHERE id = ?`), id); err != nil {
		return fmt.Errorf("delete map %d: %w", id, err)
	}
	return nil
}

func (s *MapStore) GetAll(ctx context.Context) ([]domain.Map, error) {
	return s.list(ctx, `SELECT `+mapColumns+` FROM maps ORDER BY id`)
}

func (s *MapStore) GetDisplayable(ctx context.Context) ([]domain.Map, error) {
	return s.list(ctx, `SELECT `+mapColumns+` FROM maps WHERE displayable ORDER BY id`)
}

func (s *MapStore) list(ctx context.Context, query string) ([]domain.Map, error) {
	var rows []mapRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list maps: %w", err)
	}
	out := make([]domain.Map, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *MapStore) GetByID(ctx context.Context, id int64) (domain.Map, error) {
	var row mapRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+mapColumns+` FROM maps WHERE id = ?`), id)
	if err != nil {
		return domain.Map{}, fmt.Errorf("get map: %w", notFound(err, "map", id))
	}
	return row.toDomain(), nil
}
