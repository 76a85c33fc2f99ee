package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/domain"
)

type MeterStore struct {
	db *sqlx.DB
}

const meterColumns = `id, name, ipaddress, enabled, displayable, meter_type, default_timezone_meter,
	gps_latitude, gps_longitude, identifier, note, area, cumulative, cumulative_reset,
	cumulative_reset_start, cumulative_reset_end, previous_day, reading_length, reading_variation,
	reading_gap, reading, start_timestamp, end_timestamp`

type meterRow struct {
	ID                   int64    `db:"id"`
	Name                 string   `db:"name"`
	IPAddress            *string  `db:"ipaddress"`
	Enabled              bool     `db:"enabled"`
	Displayable          bool     `db:"displayable"`
	MeterType            *string  `db:"meter_type"`
	TimeZone             *string  `db:"default_timezone_meter"`
	Latitude             *float64 `db:"gps_latitude"`
	Longitude            *float64 `db:"gps_longitude"`
	Identifier           *string  `db:"identifier"`
	Note                 *string  `db:"note"`
	Area                 *float64 `db:"area"`
	Cumulative           bool     `db:"cumulative"`
	CumulativeReset      bool     `db:"cumulative_reset"`
	CumulativeResetStart *string  `db:"cumulative_reset_start"`
	CumulativeResetEnd   *string  `db:"cumulative_reset_end"`
	PreviousDay          bool     `db:"previous_day"`
	ReadingLength        *string  `db:"reading_length"`
	ReadingVariation     *string  `db:"reading_variation"`
	ReadingGap           *float64 `db:"reading_gap"`
	Reading              float64  `db:"reading"`
	StartTimestamp       *string  `db:"start_timestamp"`
	EndTimestamp         *string  `db:"end_timestamp"`
}

func (r meterRow) toDomain() domain.Meter {
	m := domain.Meter{
		ID:                   r.ID,
		Name:                 r.Name,
		IPAddress:            r.IPAddress,
		Enabled:              r.Enabled,
		Displayable:          r.Displayable,
		TimeZone:             r.TimeZone,
		GPS:                  pointFrom(r.Latitude, r.Longitude),
		Identifier:           r.Identifier,
		Note:                 r.Note,
		Area:                 r.Area,
		Cumulative:           r.Cumulative,
		CumulativeReset:      r.CumulativeReset,
		CumulativeResetStart: r.CumulativeResetStart,
		CumulativeResetEnd:   r.CumulativeResetEnd,
		PreviousDay:          r.PreviousDay,
		ReadingLength:        r.ReadingLength,
		ReadingVariation:     r.ReadingVariation,
		ReadingGap:           r.ReadingGap,
		Reading:              r.Reading,
		StartTimestamp:       r.StartTimestamp,
		EndTimestamp:         r.EndTimestamp,
	}
	if r.MeterType != nil {
		t := domain.MeterType(*r.MeterType)
		m.MeterType = &t
	}
	return m
}

// meterArgs returns every column but id, in meterColumns order.
func meterArgs(m *domain.Meter) []any {
	lat, lon := pointCols(m.GPS)
	var meterType *string
	if m.MeterType != nil {
		s := string(*m.MeterType)
		meterType = &s
	}
	return []any{
		m.Name, m.IPAddress, m.Enabled, m.Displayable, meterType, m.TimeZone,
		lat, lon, m.Identifier, m.Note, m.Area, m.Cumulative, m.CumulativeReset,
		m.CumulativeResetStart, m.CumulativeResetEnd, m.PreviousDay, m.ReadingLength, m.ReadingVariation,
		m.ReadingGap, m.Reading, m.StartTimestamp, m.EndTimestamp,
	}
}

// Insert stores a new meter and sets its ID.
func (s *MeterStore) Insert(ctx context.Context, m *domain.Meter) error {
	return s.insert(ctx, s.db, m)
}

func (s *MeterStore) insert(ctx context.Context, ext sqlx.ExtContext, m *domain.Meter) error {
	id, err := insertReturningID(ctx, ext, `INSERT INTO meters(name, ipaddress, enabled, displayable, meter_type,
		default_timezone_meter, gps_latitude, gps_longitude, identifier, note, area, cumulative, cumulative_reset,
		cumulative_reset_start, cumulative_reset_end, previous_day, reading_length, reading_variation,
		reading_gap, reading, start_timestamp, end_timestamp)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`, meterArgs(m)...)
	if err != nil {
		return fmt.Errorf("insert meter: %w", nameConflict(err, "Meter", m.Name))
	}
	m.ID = id
	return nil
}

// Update replaces every column of an existing meter.
func (s *MeterStore) Update(ctx context.Context, m *domain.Meter) error {
	args := append(meterArgs(m), m.ID)
	err := execOne(ctx, s.db, "meter", m.ID, `UPDATE meters SET name = ?, ipaddress = ?, enabled = ?, displayable = ?,
		meter_type = ?, default_timezone_meter = ?, gps_latitude = ?, gps_longitude = ?, identifier = ?, note = ?,
		area = ?, cumulative = ?, cumulative_reset = ?, cumulative_reset_start = ?, cumulative_reset_end = ?,
		previous_day = ?, reading_length = ?, reading_variation = ?, reading_gap = ?, reading = ?,
		start_timestamp = ?, end_timestamp = ?
		WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update meter: %w", nameConflict(err, "Meter", m.Name))
	}
	return nil
}

func (s *MeterStore) GetAll(ctx context.Context) ([]domain.Meter, error) {
	return s.list(ctx, `SELECT `+meterColumns+` FROM meters ORDER BY id`)
}

func (s *MeterStore) GetDisplayable(ctx context.Context) ([]domain.Meter, error) {
	return s.list(ctx, `SELECT `+meterColumns+` FROM meters WHERE displayable ORDER BY id`)
}

func (s *MeterStore) list(ctx context.Context, query string) ([]domain.Meter, error) {
	var rows []meterRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list meters: %w", err)
	}
	out := make([]domain.Meter, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *MeterStore) GetByID(ctx context.Context, id int64) (domain.Meter, error) {
	var row meterRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+meterColumns+` FROM meters WHERE id = ?`), id)
	if err != nil {
		return domain.Meter{}, fmt.Errorf("get meter: %w", notFound(err, "meter", id))
	}
	return row.toDomain(), nil
}

// GetByName looks a meter up by its unique name.
func (s *MeterStore) GetByName(ctx context.Context, name string) (domain.Meter, error) {
	var row meterRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+meterColumns+` FROM meters WHERE name = ?`), name)
	if err != nil {
		return domain.Meter{}, fmt.Errorf("get meter %q: %w", name, notFound(err, "meter", 0))
	}
	return row.toDomain(), nil
}
