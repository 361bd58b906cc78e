package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// The statements stick to the subset of SQL understood by both MySQL and
// SQLite so the same schema serves production and local runs.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS locations (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(100) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS floors (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		location_id VARCHAR(36) NOT NULL,
		floor_number INTEGER NOT NULL DEFAULT 0,
		floor_name VARCHAR(50) NULL,
		FOREIGN KEY (location_id) REFERENCES locations(id)
	)`,
	`CREATE TABLE IF NOT EXISTS seats (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		floor_id VARCHAR(36) NOT NULL,
		seat_number VARCHAR(20) NOT NULL,
		seat_type VARCHAR(20) NOT NULL DEFAULT 'individual',
		has_power_outlet BOOLEAN NOT NULL DEFAULT FALSE,
		has_wifi BOOLEAN NOT NULL DEFAULT FALSE,
		has_ac BOOLEAN NOT NULL DEFAULT FALSE,
		accessibility BOOLEAN NOT NULL DEFAULT FALSE,
		capacity INTEGER NOT NULL DEFAULT 1,
		x_coordinate DOUBLE NOT NULL,
		y_coordinate DOUBLE NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'available',
		updated_at TIMESTAMP NULL,
		FOREIGN KEY (floor_id) REFERENCES floors(id)
	)`,
	`CREATE TABLE IF NOT EXISTS occupancy_history (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		location_name VARCHAR(100) NOT NULL,
		recorded_at VARCHAR(32) NOT NULL,
		occupancy_count INTEGER NOT NULL,
		total_capacity INTEGER NOT NULL,
		day_of_week INTEGER NOT NULL,
		hour_of_day INTEGER NOT NULL
	)`,
}

// InitSchema creates the locations, floors, seats and occupancy_history
// tables when missing.
func InitSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

type demoFloor struct {
	name   string
	number int
	rows   int
	cols   int
	prefix string
}

var demoLocations = []struct {
	name   string
	floors []demoFloor
}{
	{"Library", []demoFloor{
		{name: "Level 1", number: 1, rows: 4, cols: 6, prefix: "A"},
		{name: "Level 2", number: 2, rows: 3, cols: 6, prefix: "B"},
	}},
	{"Student Hub", []demoFloor{
		{name: "Ground", number: 0, rows: 3, cols: 5, prefix: "H"},
	}},
}

// SeedDemo fills an empty database with a small campus layout.  It does
// nothing when seats already exist.  Feature flags follow a fixed
// pattern so that rankings over the demo data are reproducible.
func SeedDemo(ctx context.Context, db *sql.DB) (int, error) {
	var existing int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM seats`).Scan(&existing); err != nil {
		return 0, fmt.Errorf("seed: count seats: %w", err)
	}
	if existing > 0 {
		return 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("seed: begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	seatTypes := []string{"individual", "quiet", "computer", "group", "study_pod"}
	inserted := 0
	for _, loc := range demoLocations {
		locID := uuid.NewString()
		if _, err := tx.ExecContext(ctx, `INSERT INTO locations (id, name) VALUES (?, ?)`, locID, loc.name); err != nil {
			return 0, fmt.Errorf("seed: location: %w", err)
		}
		for _, fl := range loc.floors {
			floorID := uuid.NewString()
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO floors (id, location_id, floor_number, floor_name) VALUES (?, ?, ?, ?)`,
				floorID, locID, fl.number, fl.name); err != nil {
				return 0, fmt.Errorf("seed: floor: %w", err)
			}
			for r := 0; r < fl.rows; r++ {
				for c := 0; c < fl.cols; c++ {
					n := r*fl.cols + c
					seatType := seatTypes[n%len(seatTypes)]
					capacity := 1
					if seatType == "group" {
						capacity = 4
					}
					x := float64(c) / float64(max(fl.cols-1, 1))
					y := float64(r) / float64(max(fl.rows-1, 1))
					if _, err := tx.ExecContext(ctx,
						`INSERT INTO seats (id, floor_id, seat_number, seat_type, has_power_outlet, has_wifi, has_ac, accessibility, capacity, x_coordinate, y_coordinate, status)
						 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'available')`,
						uuid.NewString(), floorID, fmt.Sprintf("%s-%d%02d", fl.prefix, fl.number, n+1), seatType,
						n%2 == 0, n%3 != 0, c < fl.cols/2, r == 0 && c == 0, capacity, x, y); err != nil {
						return 0, fmt.Errorf("seed: seat: %w", err)
					}
					inserted++
				}
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("seed: commit: %w", err)
	}
	committed = true
	return inserted, nil
}
