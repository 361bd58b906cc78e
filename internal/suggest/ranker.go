// Package suggest ranks available seats against a caller's preferences.
package suggest

import (
	"context"
	"fmt"
	"sort"

	"github.com/iliyamo/smart-seats/internal/model"
)

const (
	DefaultLimit = 3
	MaxLimit     = 10
)

// Reader is the seat source the ranker reads on every request.
type Reader interface {
	ReadAll(ctx context.Context) ([]model.Seat, error)
}

// Ranker scores available seats.  It holds no mutable state and is safe
// for concurrent use as long as its Reader is.
type Ranker struct {
	seats Reader
}

// NewRanker returns a ranker over r.
func NewRanker(r Reader) *Ranker {
	return &Ranker{seats: r}
}

// Suggest returns up to limit available seats matching f, best first.
// A limit of zero or less means DefaultLimit; larger values are capped at
// MaxLimit.  No match yields an empty, non-nil slice.
func (r *Ranker) Suggest(ctx context.Context, f model.SuggestionFilter, limit int) ([]model.Candidate, error) {
	seats, err := r.seats.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest: read seats: %w", err)
	}
	return Rank(seats, f, limit), nil
}

// Rank is Suggest over an in-memory seat list.
func Rank(seats []model.Seat, f model.SuggestionFilter, limit int) []model.Candidate {
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	out := make([]model.Candidate, 0, limit)
	for _, s := range seats {
		if s.Status != model.StatusAvailable {
			continue
		}
		if f.FloorID != "" && s.FloorID != f.FloorID {
			continue
		}
		if f.SeatType != "" && s.SeatType != f.SeatType {
			continue
		}
		if c, ok := Score(s, f); ok {
			out = append(out, c)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Seat.ID < out[j].Seat.ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

type feature struct {
	need     *bool
	has      bool
	required float64
	optional float64
	hasText  string
	optText  string
}

// Score rates one seat against f starting from 1.0.  ok is false when a
// required capability is missing.  An optional capability (need=false)
// that the seat has still earns a small bonus.
func Score(s model.Seat, f model.SuggestionFilter) (model.Candidate, bool) {
	features := []feature{
		{f.NeedPower, s.HasPowerOutlet, 2.0, 0.2, "Has power outlet", "Optional power outlet"},
		{f.NeedWifi, s.HasWifi, 1.0, 0.1, "Wi-Fi ready", "Optional Wi-Fi"},
		{f.NeedAC, s.HasAC, 0.5, 0.1, "Air-conditioned", "Optional AC"},
	}

	score := 1.0
	var why []string
	for _, ft := range features {
		if ft.need == nil {
			continue
		}
		switch {
		case *ft.need && !ft.has:
			return model.Candidate{}, false
		case *ft.need:
			score += ft.required
			why = append(why, ft.hasText)
		case ft.has:
			score += ft.optional
			why = append(why, ft.optText)
		}
	}
	if s.Capacity > 1 {
		score += 0.3
		why = append(why, fmt.Sprintf("Capacity for %d", s.Capacity))
	}
	if s.Accessibility {
		score += 0.2
		why = append(why, "Accessibility-friendly")
	}
	return model.Candidate{Seat: s, Score: score, Rationale: why}, true
}
