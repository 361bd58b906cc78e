// Package drift nudges seat occupancy toward a target ratio.  Each call
// to Apply is one tick of the simulation: a bounded, randomised move of
// seats between available and occupied, plus light maintenance churn.
package drift

import (
	"math"
	"math/rand/v2"

	"github.com/iliyamo/smart-seats/internal/model"
)

const (
	// DefaultMaintenanceProbability is the per-tick chance that one
	// available seat is taken out for maintenance.
	DefaultMaintenanceProbability = 0.05
	// DefaultRecoveryProbability is the per-tick chance that one seat
	// under maintenance becomes available again.
	DefaultRecoveryProbability = 0.40
)

// Simulator holds the drift parameters and the random source.  It is
// not safe for concurrent use; the scheduler owns it from a single
// goroutine.
type Simulator struct {
	TargetRatio            float64
	DriftRatio             float64
	MaintenanceProbability float64
	RecoveryProbability    float64

	rng *rand.Rand
}

// New builds a Simulator.  Ratios are clamped to [0,1].  A nil rng is
// replaced by a fixed-seed PCG source so that runs stay reproducible.
func New(targetRatio, driftRatio float64, rng *rand.Rand) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(1, 2))
	}
	return &Simulator{
		TargetRatio:            clamp01(targetRatio),
		DriftRatio:             clamp01(driftRatio),
		MaintenanceProbability: DefaultMaintenanceProbability,
		RecoveryProbability:    DefaultRecoveryProbability,
		rng:                    rng,
	}
}

// NewSeeded is New with a PCG source derived from seed.
func NewSeeded(targetRatio, driftRatio float64, seed uint64) *Simulator {
	return New(targetRatio, driftRatio, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// Plan describes the occupancy targets for one tick.
type Plan struct {
	Total           int
	Occupied        int
	DesiredOccupied int
	Delta           int
	MaxChanges      int
}

// PlanFor computes the tick targets for the given seats without
// touching the random source.
func (s *Simulator) PlanFor(seats []model.Seat) Plan {
	total := len(seats)
	occupied := 0
	for _, seat := range seats {
		if seat.Status == model.StatusOccupied {
			occupied++
		}
	}
	desired := int(math.Floor(float64(total) * s.TargetRatio))
	maxChanges := int(math.Floor(float64(total) * s.DriftRatio))
	if maxChanges < 1 {
		maxChanges = 1
	}
	return Plan{
		Total:           total,
		Occupied:        occupied,
		DesiredOccupied: desired,
		Delta:           desired - occupied,
		MaxChanges:      maxChanges,
	}
}

// Apply runs one tick over a copy of seats.  The input slice is left
// untouched; next holds the post-tick seats and changes lists every seat
// whose final status differs from its status in the input.
func (s *Simulator) Apply(seats []model.Seat) (next []model.Seat, changes []model.StatusChange) {
	next = make([]model.Seat, len(seats))
	copy(next, seats)
	if len(next) == 0 {
		return next, nil
	}

	plan := s.PlanFor(next)
	switch {
	case plan.Delta > 0:
		pool := indexesWith(next, model.StatusAvailable)
		n := min(plan.Delta, len(pool), plan.MaxChanges)
		for _, i := range s.sample(pool, n) {
			next[i].Status = model.StatusOccupied
		}
	case plan.Delta < 0:
		pool := indexesWith(next, model.StatusOccupied)
		n := min(-plan.Delta, len(pool), plan.MaxChanges)
		for _, i := range s.sample(pool, n) {
			next[i].Status = model.StatusAvailable
		}
	}

	// maintenance churn only moves seats between available and
	// maintenance, so the occupied count is unaffected
	if pool := indexesWith(next, model.StatusAvailable); len(pool) > 0 && s.rng.Float64() < s.MaintenanceProbability {
		next[pool[s.rng.IntN(len(pool))]].Status = model.StatusMaintenance
	}
	if pool := indexesWith(next, model.StatusMaintenance); len(pool) > 0 && s.rng.Float64() < s.RecoveryProbability {
		next[pool[s.rng.IntN(len(pool))]].Status = model.StatusAvailable
	}

	for i := range next {
		if next[i].Status != seats[i].Status {
			changes = append(changes, model.StatusChange{
				SeatID: next[i].ID,
				From:   seats[i].Status,
				To:     next[i].Status,
			})
		}
	}
	return next, changes
}

// sample picks n distinct entries of pool uniformly at random.
func (s *Simulator) sample(pool []int, n int) []int {
	if n <= 0 {
		return nil
	}
	perm := s.rng.Perm(len(pool))
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = pool[perm[i]]
	}
	return out
}

func indexesWith(seats []model.Seat, status model.SeatStatus) []int {
	var out []int
	for i := range seats {
		if seats[i].Status == status {
			out = append(out, i)
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
