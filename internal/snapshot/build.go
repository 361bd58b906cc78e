// Package snapshot derives read-optimised views of seat state and
// publishes them to concurrent readers.
package snapshot

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/smart-seats/internal/model"
)

// Map coordinates are spread over [mapMin, mapMin+mapSpan].
const (
	mapMin  = 5.0
	mapSpan = 90.0
)

// Empty returns a well-formed snapshot with no seats.  It is what
// readers observe before the first tick completes.
func Empty() *model.Snapshot {
	return &model.Snapshot{
		Floors: []model.FloorGroup{},
		Seats:  []model.SeatView{},
	}
}

// Normalize maps c from [lo,hi] onto [5,95].  A degenerate range (all
// values equal) is treated as a range of 1, so every value maps to 5.
func Normalize(c, lo, hi float64) float64 {
	span := hi - lo
	if span == 0 {
		span = 1
	}
	return mapMin + (c-lo)/span*mapSpan
}

// EncodeLine renders the prompt line for one seat.  The format is read
// verbatim by the language model and must not change.
func EncodeLine(seat model.Seat) string {
	var b strings.Builder
	b.Grow(64 + len(seat.SeatNumber))
	b.WriteString(seat.SeatNumber)
	b.WriteString("|path=")
	b.WriteString(seat.Path())
	b.WriteString("|status=")
	b.WriteString(string(seat.Status))
	b.WriteString("|power=")
	b.WriteString(bit(seat.HasPowerOutlet))
	b.WriteString("|wifi=")
	b.WriteString(bit(seat.HasWifi))
	b.WriteString("|ac=")
	b.WriteString(bit(seat.HasAC))
	b.WriteString("|accessible=")
	b.WriteString(bit(seat.Accessibility))
	return b.String()
}

func bit(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// Build derives all snapshot representations from seats in a single
// pass.  Seats are ordered by path, then seat number, then id; the flat
// list, the encoded text and the floor groups all follow that order.
// The input slice is not modified.
func Build(seats []model.Seat, version uint64, now time.Time) *model.Snapshot {
	snap := Empty()
	snap.Version = version
	snap.LastUpdated = now.UTC()
	if len(seats) == 0 {
		return snap
	}

	ordered := make([]model.Seat, len(seats))
	copy(ordered, seats)
	paths := make(map[string]string, len(ordered))
	for _, s := range ordered {
		paths[s.ID] = s.Path()
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		pi, pj := paths[ordered[i].ID], paths[ordered[j].ID]
		if pi != pj {
			return pi < pj
		}
		if ordered[i].SeatNumber != ordered[j].SeatNumber {
			return ordered[i].SeatNumber < ordered[j].SeatNumber
		}
		return ordered[i].ID < ordered[j].ID
	})

	xMin, xMax := math.Inf(1), math.Inf(-1)
	yMin, yMax := math.Inf(1), math.Inf(-1)
	for _, s := range ordered {
		xMin, xMax = math.Min(xMin, s.X), math.Max(xMax, s.X)
		yMin, yMax = math.Min(yMin, s.Y), math.Max(yMax, s.Y)
	}

	snap.Seats = make([]model.SeatView, 0, len(ordered))
	lines := make([]string, 0, len(ordered))
	groupIndex := make(map[string]int)

	for _, s := range ordered {
		path := paths[s.ID]
		floorName := s.FloorName
		view := model.SeatView{
			ID:             s.ID,
			SeatNumber:     s.SeatNumber,
			Status:         s.Status,
			SeatType:       s.SeatType,
			FloorID:        s.FloorID,
			FloorName:      floorName,
			LocationName:   s.LocationName,
			Path:           path,
			X:              round2(Normalize(s.X, xMin, xMax)),
			Y:              round2(Normalize(s.Y, yMin, yMax)),
			HasPowerOutlet: s.HasPowerOutlet,
			HasWifi:        s.HasWifi,
			HasAC:          s.HasAC,
			Accessibility:  s.Accessibility,
			Capacity:       s.Capacity,
		}
		snap.Seats = append(snap.Seats, view)
		lines = append(lines, EncodeLine(s))

		idx, ok := groupIndex[s.FloorID]
		if !ok {
			if floorName == "" {
				floorName = s.FloorID
			}
			snap.Floors = append(snap.Floors, model.FloorGroup{
				FloorID:      s.FloorID,
				FloorName:    floorName,
				LocationName: s.LocationName,
				Path:         path,
			})
			idx = len(snap.Floors) - 1
			groupIndex[s.FloorID] = idx
		}
		snap.Floors[idx].Seats = append(snap.Floors[idx].Seats, view)
	}

	snap.Encoded = strings.Join(lines, "\n")
	return snap
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
