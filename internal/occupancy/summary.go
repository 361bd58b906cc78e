package occupancy

import (
	"math"
	"sort"

	"github.com/iliyamo/smart-seats/internal/model"
)

// LocationSummary condenses stored samples of one location.
type LocationSummary struct {
	Location       string  `json:"location"`
	Samples        int     `json:"samples"`
	AveragePercent float64 `json:"average_occupancy_percentage"`
	PeakHours      []int   `json:"peak_hours"`
	QuietHours     []int   `json:"quiet_hours"`
}

// Summarize groups recs by location.  Peak and quiet hours are the three
// hours of day (UTC) with the highest and lowest average occupancy;
// ties go to the earlier hour.
func Summarize(recs []model.OccupancyRecord) []LocationSummary {
	type acc struct {
		n     int
		sum   float64
		hours map[int]float64
		hourN map[int]int
	}
	by := map[string]*acc{}
	for _, r := range recs {
		a, ok := by[r.LocationName]
		if !ok {
			a = &acc{hours: map[int]float64{}, hourN: map[int]int{}}
			by[r.LocationName] = a
		}
		p := r.Percentage()
		a.n++
		a.sum += p
		a.hours[r.HourOfDay] += p
		a.hourN[r.HourOfDay]++
	}

	out := make([]LocationSummary, 0, len(by))
	for loc, a := range by {
		type hourAvg struct {
			hour int
			avg  float64
		}
		hs := make([]hourAvg, 0, len(a.hours))
		for h, sum := range a.hours {
			hs = append(hs, hourAvg{h, sum / float64(a.hourN[h])})
		}
		sort.Slice(hs, func(i, j int) bool {
			if hs[i].avg != hs[j].avg {
				return hs[i].avg > hs[j].avg
			}
			return hs[i].hour < hs[j].hour
		})
		s := LocationSummary{
			Location:       loc,
			Samples:        a.n,
			AveragePercent: math.Round(a.sum/float64(a.n)*100) / 100,
			PeakHours:      []int{},
			QuietHours:     []int{},
		}
		for i := 0; i < len(hs) && i < 3; i++ {
			s.PeakHours = append(s.PeakHours, hs[i].hour)
		}
		sort.SliceStable(hs, func(i, j int) bool {
			if hs[i].avg != hs[j].avg {
				return hs[i].avg < hs[j].avg
			}
			return hs[i].hour < hs[j].hour
		})
		for i := 0; i < len(hs) && i < 3; i++ {
			s.QuietHours = append(s.QuietHours, hs[i].hour)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out
}
