package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/domain"
)

// ReadingStore serves point-in-time queries over stored readings.
type ReadingStore struct {
	db *sqlx.DB
}

type meterReadingRow struct {
	MeterID int64 `db:"meter_id"`
	domain.Reading
}

// InsertBatch stores readings for one meter in a single transaction.
func (s *ReadingStore) InsertBatch(ctx context.Context, meterID int64, readings []domain.Reading) error {
	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, tx.Rebind(
			`INSERT INTO readings(meter_id, reading, start_timestamp, end_timestamp) VALUES (?, ?, ?, ?)`))
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, r := range readings {
			if _, err := stmt.ExecContext(ctx, meterID, r.Reading, r.StartTimestamp, r.EndTimestamp); err != nil {
				return fmt.Errorf("insert reading for meter %d at %d: %w", meterID, r.StartTimestamp, err)
			}
		}
		return nil
	})
}

// ForMeters returns the readings of each meter that start inside ti, ordered by
// start time. Meters without readings map to an empty slice.
func (s *ReadingStore) ForMeters(ctx context.Context, meterIDs []int64, ti domain.TimeInterval) (map[int64][]domain.Reading, error) {
	out := make(map[int64][]domain.Reading, len(meterIDs))
	if len(meterIDs) == 0 {
		return out, nil
	}
	for _, id := range meterIDs {
		out[id] = []domain.Reading{}
	}

	var where strings.Builder
	where.WriteString(`meter_id IN (?)`)
	args := []any{meterIDs}
	if start, ok := ti.StartTimestamp(); ok {
		where.WriteString(` AND start_timestamp >= ?`)
		args = append(args, start)
	}
	if end, ok := ti.EndTimestamp(); ok {
		where.WriteString(` AND start_timestamp < ?`)
		args = append(args, end)
	}
	query, args, err := sqlx.In(`SELECT meter_id, reading, start_timestamp, end_timestamp FROM readings WHERE `+
		where.String()+` ORDER BY meter_id, start_timestamp`, args...)
	if err != nil {
		return nil, err
	}
	var rows []meterReadingRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("readings: %w", err)
	}
	for _, r := range rows {
		out[r.MeterID] = append(out[r.MeterID], r.Reading)
	}
	return out, nil
}
