package queue_publisher

import (
	"testing"
	"time"

	"github.com/iliyamo/smart-seats/internal/model"
)

func TestNewSnapshotEvent(t *testing.T) {
	snap := &model.Snapshot{
		Version:     4,
		LastUpdated: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
		Floors:      []model.FloorGroup{{FloorID: "f1"}, {FloorID: "f2"}},
		Seats: []model.SeatView{
			{ID: "a", Status: model.StatusAvailable},
			{ID: "b", Status: model.StatusOccupied},
			{ID: "c", Status: model.StatusOccupied},
		},
	}
	ev := NewSnapshotEvent(snap)
	if ev.Version != 4 || ev.TotalSeats != 3 || ev.Floors != 2 {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.PublishedAt != "2025-03-01T09:30:00Z" {
		t.Fatalf("published_at = %q", ev.PublishedAt)
	}
	if ev.Counts["occupied"] != 2 || ev.Counts["available"] != 1 {
		t.Fatalf("counts = %v", ev.Counts)
	}
}
