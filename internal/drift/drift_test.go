package drift

import (
	"fmt"
	"testing"

	"github.com/iliyamo/smart-seats/internal/model"
)

func makeSeats(available, occupied, maintenance int) []model.Seat {
	var seats []model.Seat
	add := func(n int, st model.SeatStatus) {
		for i := 0; i < n; i++ {
			seats = append(seats, model.Seat{ID: fmt.Sprintf("S%03d", len(seats)), Status: st})
		}
	}
	add(available, model.StatusAvailable)
	add(occupied, model.StatusOccupied)
	add(maintenance, model.StatusMaintenance)
	return seats
}

func countStatus(seats []model.Seat, st model.SeatStatus) int {
	n := 0
	for _, s := range seats {
		if s.Status == st {
			n++
		}
	}
	return n
}

func TestApplyBoundedByMaxChanges(t *testing.T) {
	cases := []struct {
		name                string
		available, occupied int
		target, drift       float64
	}{
		{"fill up", 100, 0, 0.65, 0.06},
		{"drain", 10, 90, 0.2, 0.05},
		{"tiny drift", 20, 0, 0.9, 0.01},
		{"at target", 35, 65, 0.65, 0.06},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sim := NewSeeded(tc.target, tc.drift, 42)
			seats := makeSeats(tc.available, tc.occupied, 0)
			for tick := 0; tick < 50; tick++ {
				plan := sim.PlanFor(seats)
				next, _ := sim.Apply(seats)
				before := countStatus(seats, model.StatusOccupied)
				after := countStatus(next, model.StatusOccupied)
				diff := after - before
				if diff < 0 {
					diff = -diff
				}
				if diff > plan.MaxChanges {
					t.Fatalf("tick %d: occupied moved %d, max %d", tick, diff, plan.MaxChanges)
				}
				seats = next
			}
		})
	}
}

func TestApplyMovesTowardTargetWithoutOvershoot(t *testing.T) {
	sim := NewSeeded(0.65, 0.06, 7)
	seats := makeSeats(100, 0, 0)
	plan := sim.PlanFor(seats)
	if plan.DesiredOccupied != 65 || plan.MaxChanges != 6 {
		t.Fatalf("unexpected plan: %+v", plan)
	}
	next, _ := sim.Apply(seats)
	got := countStatus(next, model.StatusOccupied)
	if got != 6 {
		t.Fatalf("expected exactly max_changes=6 seats occupied, got %d", got)
	}

	// converge from above
	seats = makeSeats(5, 95, 0)
	for i := 0; i < 30; i++ {
		p := sim.PlanFor(seats)
		next, _ := sim.Apply(seats)
		occ := countStatus(next, model.StatusOccupied)
		if p.Delta < 0 && occ < p.DesiredOccupied {
			t.Fatalf("overshot target: occupied=%d desired=%d", occ, p.DesiredOccupied)
		}
		if p.Delta < 0 && -p.Delta > p.MaxChanges && occ >= p.Occupied {
			t.Fatalf("did not move toward target: before=%d after=%d", p.Occupied, occ)
		}
		seats = next
	}
	if occ := countStatus(seats, model.StatusOccupied); occ != 65 {
		t.Fatalf("expected convergence at 65, got %d", occ)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	sim := NewSeeded(1, 1, 3)
	seats := makeSeats(10, 0, 0)
	_, changes := sim.Apply(seats)
	if len(changes) == 0 {
		t.Fatal("expected changes")
	}
	if countStatus(seats, model.StatusAvailable) != 10 {
		t.Fatal("input slice was mutated")
	}
	for _, c := range changes {
		if c.From == c.To {
			t.Fatalf("no-op change reported: %+v", c)
		}
	}
}

func TestApplyEdgeCases(t *testing.T) {
	sim := NewSeeded(0.5, 0.1, 1)

	next, changes := sim.Apply(nil)
	if len(next) != 0 || len(changes) != 0 {
		t.Fatalf("zero seats should be a no-op, got %d seats %d changes", len(next), len(changes))
	}

	// all maintenance: nothing to occupy; recovery may move at most one seat back
	seats := makeSeats(0, 0, 10)
	next, changes = sim.Apply(seats)
	if countStatus(next, model.StatusOccupied) != 0 {
		t.Fatal("occupied seats appeared from maintenance pool")
	}
	if len(changes) > 1 {
		t.Fatalf("expected at most one recovery, got %d changes", len(changes))
	}
}

func TestMaintenanceChurn(t *testing.T) {
	sim := NewSeeded(0, 0.1, 11)
	sim.MaintenanceProbability = 1
	sim.RecoveryProbability = 0
	seats := makeSeats(10, 0, 0)
	next, changes := sim.Apply(seats)
	if countStatus(next, model.StatusMaintenance) != 1 {
		t.Fatalf("expected one seat in maintenance, got %d", countStatus(next, model.StatusMaintenance))
	}
	if len(changes) != 1 || changes[0].To != model.StatusMaintenance {
		t.Fatalf("unexpected changes: %+v", changes)
	}

	sim.MaintenanceProbability = 0
	sim.RecoveryProbability = 1
	back, _ := sim.Apply(next)
	if countStatus(back, model.StatusMaintenance) != 0 {
		t.Fatal("expected maintenance seat to recover")
	}
}

func TestApplyReproducibleWithSameSeed(t *testing.T) {
	seats := makeSeats(50, 0, 0)
	a, _ := NewSeeded(0.5, 0.2, 99).Apply(seats)
	b, _ := NewSeeded(0.5, 0.2, 99).Apply(seats)
	for i := range a {
		if a[i].Status != b[i].Status {
			t.Fatalf("seat %s differs between identical seeds", a[i].ID)
		}
	}
}
