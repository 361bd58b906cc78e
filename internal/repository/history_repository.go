package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/smart-seats/internal/model"
)

// historyTimeLayout is fixed width so recorded_at sorts as text.
const historyTimeLayout = "2006-01-02T15:04:05.000000Z"

// HistoryRepo stores occupancy history samples.
type HistoryRepo struct {
	db *sql.DB
}

// NewHistoryRepo constructs a HistoryRepo with the given DB handle.
func NewHistoryRepo(db *sql.DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// Insert writes records in one transaction.
func (r *HistoryRepo) Insert(ctx context.Context, records []model.OccupancyRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const q = `INSERT INTO occupancy_history
		(id, location_name, recorded_at, occupancy_count, total_capacity, day_of_week, hour_of_day)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	for _, rec := range records {
		if _, err := tx.ExecContext(ctx, q,
			rec.ID, rec.LocationName, rec.RecordedAt.UTC().Format(historyTimeLayout),
			rec.OccupancyCount, rec.TotalCapacity, rec.DayOfWeek, rec.HourOfDay); err != nil {
			return fmt.Errorf("history %s: %w", rec.ID, err)
		}
	}
	return tx.Commit()
}

// List returns up to limit records, newest first.  An empty location
// lists every location.
func (r *HistoryRepo) List(ctx context.Context, location string, limit int) ([]model.OccupancyRecord, error) {
	q := `SELECT id, location_name, recorded_at, occupancy_count, total_capacity, day_of_week, hour_of_day
		FROM occupancy_history`
	args := []any{}
	if location != "" {
		q += ` WHERE location_name = ?`
		args = append(args, location)
	}
	q += ` ORDER BY recorded_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.OccupancyRecord{}
	for rows.Next() {
		var (
			rec model.OccupancyRecord
			at  string
		)
		if err := rows.Scan(&rec.ID, &rec.LocationName, &at, &rec.OccupancyCount,
			&rec.TotalCapacity, &rec.DayOfWeek, &rec.HourOfDay); err != nil {
			return nil, err
		}
		if rec.RecordedAt, err = time.Parse(historyTimeLayout, at); err != nil {
			return nil, fmt.Errorf("history %s: recorded_at: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
