package repository // repository defines data access for seats

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/smart-seats/internal/model"
)

// SeatRepo provides methods to work with seats in the database. It is
// the seat store read by the drift worker and the suggestion ranker and
// written by drift ticks and occupancy events. All methods are safe for
// concurrent use; *sql.DB does the synchronisation.
type SeatRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db, now: time.Now}
}

// DB exposes the underlying handle for callers that need raw access.
func (r *SeatRepo) DB() *sql.DB { return r.db }

const seatColumns = `s.id, s.floor_id, f.floor_name, l.name, s.seat_number, s.seat_type,
	s.x_coordinate, s.y_coordinate, s.status,
	s.has_power_outlet, s.has_wifi, s.has_ac, s.accessibility, s.capacity`

const seatFrom = `FROM seats s
	LEFT JOIN floors f ON f.id = s.floor_id
	LEFT JOIN locations l ON l.id = f.location_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSeat(row rowScanner) (model.Seat, error) {
	var (
		s                   model.Seat
		floorName, location sql.NullString
		seatType, status    string
	)
	err := row.Scan(
		&s.ID, &s.FloorID, &floorName, &location, &s.SeatNumber, &seatType,
		&s.X, &s.Y, &status,
		&s.HasPowerOutlet, &s.HasWifi, &s.HasAC, &s.Accessibility, &s.Capacity,
	)
	if err != nil {
		return model.Seat{}, err
	}
	s.FloorName = floorName.String
	s.LocationName = location.String
	s.SeatType = model.SeatType(seatType)
	s.Status = model.SeatStatus(status)
	return s, nil
}

// ReadAll retrieves every seat with its floor and location names,
// ordered by id so repeated reads are stable.
func (r *SeatRepo) ReadAll(ctx context.Context) ([]model.Seat, error) {
	q := `SELECT ` + seatColumns + ` ` + seatFrom + ` ORDER BY s.id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Seat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID retrieves a seat by its id.
func (r *SeatRepo) GetByID(ctx context.Context, id string) (*model.Seat, error) {
	q := `SELECT ` + seatColumns + ` ` + seatFrom + ` WHERE s.id = ?`
	s, err := scanSeat(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Commit applies a batch of status changes in one transaction. Each
// change only applies while the seat still has its From status; if any
// row does not match, the transaction is rolled back and ErrConflict is
// returned. Either every change is stored or none is.
func (r *SeatRepo) Commit(ctx context.Context, changes []model.StatusChange) error {
	if len(changes) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE seats SET status = ?, updated_at = ? WHERE id = ? AND status = ?`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := r.now().UTC()
	for _, c := range changes {
		if !c.To.Valid() {
			return fmt.Errorf("seat %s: %w: %q", c.SeatID, ErrInvalidStatus, c.To)
		}
		res, err := stmt.ExecContext(ctx, string(c.To), now, c.SeatID, string(c.From))
		if err != nil {
			return fmt.Errorf("update seat %s: %w", c.SeatID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("seat %s no longer %s: %w", c.SeatID, c.From, ErrConflict)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// SetStatus unconditionally sets one seat's status. It is used by
// external occupancy and reservation events. Returns ErrSeatNotFound
// when no seat has the id.
func (r *SeatRepo) SetStatus(ctx context.Context, id string, status model.SeatStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE seats SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), r.now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 affected rows when the value is unchanged, so
		// distinguish "missing" from "already in that state".
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
