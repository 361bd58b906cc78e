// Package occupancy applies seat status reports coming from outside the
// drift worker: IoT seat sensors, reservation services and the HTTP
// sensor endpoint.
package occupancy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iliyamo/smart-seats/internal/model"
)

// ErrInvalidEvent is returned for events that name no seat or no usable
// status.
var ErrInvalidEvent = errors.New("occupancy: invalid event")

// Event is one status report.  Sensors send IsOccupied; reservation
// services send an explicit Status, which wins when both are present.
type Event struct {
	SeatID     string    `json:"seat_id"`
	Status     string    `json:"status,omitempty"`
	IsOccupied *bool     `json:"is_occupied,omitempty"`
	Source     string    `json:"source,omitempty"`
	Timestamp  time.Time `json:"timestamp,omitempty"`
}

// Resolve validates e and returns the status it asks for.
func (e Event) Resolve() (model.SeatStatus, error) {
	if strings.TrimSpace(e.SeatID) == "" {
		return "", fmt.Errorf("%w: seat_id is required", ErrInvalidEvent)
	}
	if e.Status != "" {
		st, ok := model.ParseSeatStatus(e.Status)
		if !ok {
			return "", fmt.Errorf("%w: unknown status %q", ErrInvalidEvent, e.Status)
		}
		return st, nil
	}
	if e.IsOccupied == nil {
		return "", fmt.Errorf("%w: status or is_occupied is required", ErrInvalidEvent)
	}
	if *e.IsOccupied {
		return model.StatusOccupied, nil
	}
	return model.StatusAvailable, nil
}

// Store is the write side of the seat repository.
type Store interface {
	SetStatus(ctx context.Context, id string, status model.SeatStatus) error
}

// Applier writes events to the seat store.  The change shows up in the
// next published snapshot.
type Applier struct {
	store Store
	log   *slog.Logger
}

// NewApplier returns an Applier over store.
func NewApplier(store Store, logger *slog.Logger) *Applier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Applier{store: store, log: logger}
}

// Apply validates ev and stores its status.  It returns the status
// written.
func (a *Applier) Apply(ctx context.Context, ev Event) (model.SeatStatus, error) {
	st, err := ev.Resolve()
	if err != nil {
		return "", err
	}
	id := strings.TrimSpace(ev.SeatID)
	if err := a.store.SetStatus(ctx, id, st); err != nil {
		return "", fmt.Errorf("occupancy: seat %s: %w", id, err)
	}
	a.log.Debug("occupancy: status applied", "seat", id, "status", st, "source", ev.Source)
	return st, nil
}
