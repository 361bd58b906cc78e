package occupancy

import (
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/smart-seats/internal/model"
)

// Levels is the live occupancy read of one snapshot.
type Levels struct {
	Version   uint64                 `json:"version"`
	Timestamp time.Time              `json:"timestamp"`
	Locations []model.OccupancyLevel `json:"locations"`
	Floors    []model.OccupancyLevel `json:"floors"`
}

// Current tallies occupied seats per location and per floor of snap.
// Only status occupied counts as occupied.  A non-empty location keeps
// that location only, matched case-insensitively.
func Current(snap *model.Snapshot, location string) Levels {
	out := Levels{Locations: []model.OccupancyLevel{}, Floors: []model.OccupancyLevel{}}
	if snap == nil {
		return out
	}
	out.Version, out.Timestamp = snap.Version, snap.LastUpdated
	location = strings.TrimSpace(location)

	byLoc := map[string]*model.OccupancyLevel{}
	for _, fg := range snap.Floors {
		if location != "" && !strings.EqualFold(fg.LocationName, location) {
			continue
		}
		fl := model.OccupancyLevel{LocationName: fg.LocationName, FloorID: fg.FloorID, FloorName: fg.FloorName}
		for _, s := range fg.Seats {
			fl.Total++
			if s.Status == model.StatusOccupied {
				fl.Occupied++
			}
		}
		fl.Percentage = model.OccupancyPercent(fl.Occupied, fl.Total)
		out.Floors = append(out.Floors, fl)

		loc, ok := byLoc[fg.LocationName]
		if !ok {
			loc = &model.OccupancyLevel{LocationName: fg.LocationName}
			byLoc[fg.LocationName] = loc
		}
		loc.Occupied += fl.Occupied
		loc.Total += fl.Total
	}
	for _, loc := range byLoc {
		loc.Percentage = model.OccupancyPercent(loc.Occupied, loc.Total)
		out.Locations = append(out.Locations, *loc)
	}
	sort.Slice(out.Locations, func(i, j int) bool {
		return out.Locations[i].LocationName < out.Locations[j].LocationName
	})
	return out
}
