package model

import "strings"

// SeatStatus is the occupancy state of a seat.  Values match the
// lower-case strings stored in seats.status and emitted in snapshots.
type SeatStatus string

const (
    StatusAvailable   SeatStatus = "available"
    StatusOccupied    SeatStatus = "occupied"
    StatusReserved    SeatStatus = "reserved"
    StatusMaintenance SeatStatus = "maintenance"
    StatusBlocked     SeatStatus = "blocked"
)

// Valid reports whether s is one of the known statuses.
func (s SeatStatus) Valid() bool {
    switch s {
    case StatusAvailable, StatusOccupied, StatusReserved, StatusMaintenance, StatusBlocked:
        return true
    }
    return false
}

// ParseSeatStatus normalises a status string (case and surrounding
// whitespace are ignored).  ok is false for unknown values.
func ParseSeatStatus(s string) (SeatStatus, bool) {
    st := SeatStatus(strings.ToLower(strings.TrimSpace(s)))
    return st, st.Valid()
}

// SeatType classifies the kind of study spot a seat offers.
type SeatType string

const (
    SeatIndividual SeatType = "individual"
    SeatGroup      SeatType = "group"
    SeatQuiet      SeatType = "quiet"
    SeatComputer   SeatType = "computer"
    SeatStudyPod   SeatType = "study_pod"
)

// Valid reports whether t is one of the known seat types.
func (t SeatType) Valid() bool {
    switch t {
    case SeatIndividual, SeatGroup, SeatQuiet, SeatComputer, SeatStudyPod:
        return true
    }
    return false
}

// Seat describes a physical seat on a floor of a study location.
// Floor and location names are denormalised from the floors and
// locations tables so that a seat row carries everything a snapshot
// or a suggestion needs.
//
// Fields:
//  ID             – primary key (UUID string).
//  FloorID        – floor to which this seat belongs.
//  FloorName      – display name of the floor (may be empty).
//  LocationName   – display name of the location (may be empty).
//  SeatNumber     – human facing label, e.g. A-101.
//  SeatType       – kind of seat (individual, group, quiet, ...).
//  X, Y           – position on the floor map in [0,1].
//  Status         – current occupancy state.
//  HasPowerOutlet, HasWifi, HasAC, Accessibility – capability flags.
//  Capacity       – number of people the seat accommodates.
type Seat struct {
    ID             string     // seats.id
    FloorID        string     // seats.floor_id
    FloorName      string     // floors.floor_name
    LocationName   string     // locations.name
    SeatNumber     string     // seats.seat_number
    SeatType       SeatType   // seats.seat_type
    X              float64    // seats.x_coordinate
    Y              float64    // seats.y_coordinate
    Status         SeatStatus // seats.status
    HasPowerOutlet bool       // seats.has_power_outlet
    HasWifi        bool       // seats.has_wifi
    HasAC          bool       // seats.has_ac
    Accessibility  bool       // seats.accessibility
    Capacity       int        // seats.capacity
}

// Path returns the "location / floor" label used to group and encode
// seats.  Empty parts are skipped; the floor id is the last resort.
func (s Seat) Path() string {
    parts := make([]string, 0, 2)
    if s.LocationName != "" {
        parts = append(parts, s.LocationName)
    }
    if s.FloorName != "" {
        parts = append(parts, s.FloorName)
    }
    if len(parts) > 0 {
        return strings.Join(parts, " / ")
    }
    return s.FloorID
}

// StatusChange records one status transition produced by the drift
// simulator.  From is the status the seat had when it was read; the
// store only applies the change while the seat still has that status.
type StatusChange struct {
    SeatID string
    From   SeatStatus
    To     SeatStatus
}
