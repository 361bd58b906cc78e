package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/iliyamo/smart-seats/internal/database"
	"github.com/iliyamo/smart-seats/internal/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()
	if err := database.InitSchema(ctx, db); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	stmts := []string{
		`INSERT INTO locations (id, name) VALUES ('loc1', 'Library')`,
		`INSERT INTO floors (id, location_id, floor_number, floor_name) VALUES ('f1', 'loc1', 2, 'Level 2')`,
		`INSERT INTO seats (id, floor_id, seat_number, seat_type, has_power_outlet, has_wifi, has_ac, accessibility, capacity, x_coordinate, y_coordinate, status)
		 VALUES ('S1', 'f1', 'A-101', 'quiet', 1, 0, 1, 0, 1, 0.1, 0.2, 'available')`,
		`INSERT INTO seats (id, floor_id, seat_number, seat_type, has_power_outlet, has_wifi, has_ac, accessibility, capacity, x_coordinate, y_coordinate, status)
		 VALUES ('S2', 'f1', 'A-102', 'group', 0, 1, 0, 1, 4, 0.5, 0.5, 'occupied')`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			t.Fatalf("fixture: %v", err)
		}
	}
	return db
}

func TestSeatRepoReadAll(t *testing.T) {
	repo := NewSeatRepo(openTestDB(t))
	seats, err := repo.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(seats) != 2 {
		t.Fatalf("expected 2 seats, got %d", len(seats))
	}
	s := seats[0]
	if s.ID != "S1" || s.SeatNumber != "A-101" || s.Path() != "Library / Level 2" {
		t.Fatalf("unexpected seat: %+v", s)
	}
	if !s.HasPowerOutlet || s.HasWifi || !s.HasAC || s.Accessibility {
		t.Fatalf("flags not scanned: %+v", s)
	}
	if s.Status != model.StatusAvailable || s.SeatType != model.SeatQuiet {
		t.Fatalf("enums not scanned: %+v", s)
	}
	if seats[1].Capacity != 4 {
		t.Fatalf("capacity = %d", seats[1].Capacity)
	}
}

func TestSeatRepoCommitAllOrNothing(t *testing.T) {
	repo := NewSeatRepo(openTestDB(t))
	ctx := context.Background()

	err := repo.Commit(ctx, []model.StatusChange{
		{SeatID: "S1", From: model.StatusAvailable, To: model.StatusOccupied},
		// stale: S2 is occupied, not available
		{SeatID: "S2", From: model.StatusAvailable, To: model.StatusOccupied},
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	s1, err := repo.GetByID(ctx, "S1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if s1.Status != model.StatusAvailable {
		t.Fatalf("partial commit leaked: S1 is %s", s1.Status)
	}

	err = repo.Commit(ctx, []model.StatusChange{
		{SeatID: "S1", From: model.StatusAvailable, To: model.StatusOccupied},
		{SeatID: "S2", From: model.StatusOccupied, To: model.StatusAvailable},
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	seats, _ := repo.ReadAll(ctx)
	if seats[0].Status != model.StatusOccupied || seats[1].Status != model.StatusAvailable {
		t.Fatalf("commit not applied: %s %s", seats[0].Status, seats[1].Status)
	}
}

func TestSeatRepoSetStatus(t *testing.T) {
	repo := NewSeatRepo(openTestDB(t))
	ctx := context.Background()

	if err := repo.SetStatus(ctx, "S1", model.StatusReserved); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	s, _ := repo.GetByID(ctx, "S1")
	if s.Status != model.StatusReserved {
		t.Fatalf("status = %s", s.Status)
	}
	if err := repo.SetStatus(ctx, "nope", model.StatusReserved); !errors.Is(err, ErrSeatNotFound) {
		t.Fatalf("expected ErrSeatNotFound, got %v", err)
	}
	if err := repo.SetStatus(ctx, "S1", model.SeatStatus("sleeping")); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestSeedDemoIsIdempotent(t *testing.T) {
	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	ctx := context.Background()
	if err := database.InitSchema(ctx, db); err != nil {
		t.Fatalf("schema: %v", err)
	}
	n, err := database.SeedDemo(ctx, db)
	if err != nil || n == 0 {
		t.Fatalf("first seed: n=%d err=%v", n, err)
	}
	again, err := database.SeedDemo(ctx, db)
	if err != nil || again != 0 {
		t.Fatalf("second seed: n=%d err=%v", again, err)
	}
	seats, err := NewSeatRepo(db).ReadAll(ctx)
	if err != nil || len(seats) != n {
		t.Fatalf("ReadAll after seed: %d seats, err=%v", len(seats), err)
	}
}
