package model

import "strings"

// SuggestionFilter narrows a ranking request.  The Need* fields are
// tri-state: nil means the caller has no preference, true makes the
// capability mandatory and false marks it as optional.
type SuggestionFilter struct {
    FloorID   string
    SeatType  SeatType
    NeedPower *bool
    NeedWifi  *bool
    NeedAC    *bool
}

// Candidate is a scored seat offered for one request.  It is never persisted.
type Candidate struct {
    Seat      Seat
    Score     float64
    Rationale []string
}

// RationaleText joins the rationale parts for display.
func (c Candidate) RationaleText() string {
    if len(c.Rationale) == 0 {
        return "Good match"
    }
    return strings.Join(c.Rationale, "; ")
}

// SeatDetail is the seat description returned alongside a suggestion or
// a chat reply.
type SeatDetail struct {
    SeatID         string   `json:"seat_id"`
    SeatNumber     string   `json:"seat_number"`
    FloorID        string   `json:"floor_id"`
    FloorName      string   `json:"floor_name"`
    Path           string   `json:"path"`
    SeatType       SeatType `json:"seat_type"`
    HasPowerOutlet bool     `json:"has_power_outlet"`
    HasWifi        bool     `json:"has_wifi"`
    HasAC          bool     `json:"has_ac"`
    Accessibility  bool     `json:"accessibility"`
    Capacity       int      `json:"capacity"`
    Score          float64  `json:"score"`
    Rationale      string   `json:"rationale"`
}

// Detail converts a candidate into its response form.
func (c Candidate) Detail() SeatDetail {
    floorName := c.Seat.FloorName
    if floorName == "" {
        floorName = "Unknown Floor"
    }
    return SeatDetail{
        SeatID:         c.Seat.ID,
        SeatNumber:     c.Seat.SeatNumber,
        FloorID:        c.Seat.FloorID,
        FloorName:      floorName,
        Path:           c.Seat.Path(),
        SeatType:       c.Seat.SeatType,
        HasPowerOutlet: c.Seat.HasPowerOutlet,
        HasWifi:        c.Seat.HasWifi,
        HasAC:          c.Seat.HasAC,
        Accessibility:  c.Seat.Accessibility,
        Capacity:       c.Seat.Capacity,
        Score:          c.Score,
        Rationale:      c.RationaleText(),
    }
}
