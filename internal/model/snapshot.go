package model

import "time"

// SeatView is the read-optimised form of a seat inside a snapshot.
// X and Y are normalised to the [5,95] map range.
type SeatView struct {
    ID             string     `json:"id"`
    SeatNumber     string     `json:"seat_number"`
    Status         SeatStatus `json:"status"`
    SeatType       SeatType   `json:"seat_type,omitempty"`
    FloorID        string     `json:"floor_id"`
    FloorName      string     `json:"floor_name"`
    LocationName   string     `json:"location_name"`
    Path           string     `json:"path"`
    X              float64    `json:"x"`
    Y              float64    `json:"y"`
    HasPowerOutlet bool       `json:"has_power_outlet"`
    HasWifi        bool       `json:"has_wifi"`
    HasAC          bool       `json:"has_ac"`
    Accessibility  bool       `json:"accessibility"`
    Capacity       int        `json:"capacity"`
}

// FloorGroup is one floor of a snapshot with its seats sorted by seat number.
type FloorGroup struct {
    FloorID      string     `json:"floor_id"`
    FloorName    string     `json:"floor_name"`
    LocationName string     `json:"location_name"`
    Path         string     `json:"path"`
    Seats        []SeatView `json:"seats"`
}

// Snapshot is an immutable copy of all seat state at one instant.
// Floors, Seats and Encoded are derived from the same pass over the
// same seat list.  A zero Version means nothing has been published yet.
// Callers must not modify a Snapshot obtained from the cache.
type Snapshot struct {
    Version     uint64       `json:"version"`
    Floors      []FloorGroup `json:"floors"`
    Seats       []SeatView   `json:"seats"`
    Encoded     string       `json:"encoded"`
    LastUpdated time.Time    `json:"last_updated"`
}

// Counts tallies seats per status.
func (s *Snapshot) Counts() map[SeatStatus]int {
    out := make(map[SeatStatus]int)
    if s == nil {
        return out
    }
    for _, v := range s.Seats {
        out[v.Status]++
    }
    return out
}
