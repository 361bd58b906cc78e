package occupancy

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/iliyamo/smart-seats/internal/model"
)

type memStore map[string]model.SeatStatus

var errMissing = errors.New("missing")

func (m memStore) SetStatus(_ context.Context, id string, st model.SeatStatus) error {
	if _, ok := m[id]; !ok {
		return errMissing
	}
	m[id] = st
	return nil
}

func boolp(b bool) *bool { return &b }

func TestResolve(t *testing.T) {
	cases := []struct {
		name string
		ev   Event
		want model.SeatStatus
		err  bool
	}{
		{"sensor occupied", Event{SeatID: "s1", IsOccupied: boolp(true)}, model.StatusOccupied, false},
		{"sensor free", Event{SeatID: "s1", IsOccupied: boolp(false)}, model.StatusAvailable, false},
		{"explicit status wins", Event{SeatID: "s1", Status: " Reserved ", IsOccupied: boolp(true)}, model.StatusReserved, false},
		{"missing seat", Event{IsOccupied: boolp(true)}, "", true},
		{"unknown status", Event{SeatID: "s1", Status: "napping"}, "", true},
		{"no status at all", Event{SeatID: "s1"}, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.ev.Resolve()
			if tc.err {
				if !errors.Is(err, ErrInvalidEvent) {
					t.Fatalf("expected ErrInvalidEvent, got %v", err)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("got %q, %v; want %q", got, err, tc.want)
			}
		})
	}
}

func TestApply(t *testing.T) {
	store := memStore{"s1": model.StatusAvailable}
	a := NewApplier(store, nil)

	st, err := a.Apply(context.Background(), Event{SeatID: "s1", IsOccupied: boolp(true), Source: "sensor"})
	if err != nil || st != model.StatusOccupied {
		t.Fatalf("Apply: %q %v", st, err)
	}
	if store["s1"] != model.StatusOccupied {
		t.Fatalf("store not updated: %q", store["s1"])
	}
	if _, err := a.Apply(context.Background(), Event{SeatID: "ghost", IsOccupied: boolp(true)}); !errors.Is(err, errMissing) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestApplyBatchSkipsBadEvents(t *testing.T) {
	store := memStore{"s1": model.StatusAvailable, "s2": model.StatusOccupied}
	a := NewApplier(store, nil)

	res := a.ApplyBatch(context.Background(), []Event{
		{SeatID: "s1", IsOccupied: boolp(true)},
		{SeatID: "ghost", IsOccupied: boolp(true)},
		{SeatID: "s2", Status: "napping"},
		{SeatID: "s2", IsOccupied: boolp(false)},
	})
	if res.Total != 4 || res.Updated != 2 || len(res.Failed) != 2 {
		t.Fatalf("result = %+v", res)
	}
	if res.Failed[0].SeatID != "ghost" || res.Failed[1].SeatID != "s2" {
		t.Fatalf("failed = %+v", res.Failed)
	}
	if store["s1"] != model.StatusOccupied || store["s2"] != model.StatusAvailable {
		t.Fatalf("store = %v", store)
	}
}

func TestApplyBatchCancelled(t *testing.T) {
	store := memStore{"s1": model.StatusAvailable}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := NewApplier(store, nil).ApplyBatch(ctx, []Event{{SeatID: "s1", IsOccupied: boolp(true)}})
	if res.Updated != 0 || len(res.Failed) != 1 {
		t.Fatalf("result = %+v", res)
	}
	if store["s1"] != model.StatusAvailable {
		t.Fatal("cancelled batch wrote a status")
	}
}

func levelSnapshot() *model.Snapshot {
	seat := func(id string, st model.SeatStatus) model.SeatView { return model.SeatView{ID: id, Status: st} }
	return &model.Snapshot{
		Version:     3,
		LastUpdated: time.Date(2026, 10, 19, 14, 30, 0, 0, time.UTC), // a Monday
		Floors: []model.FloorGroup{
			{FloorID: "f1", FloorName: "Level 1", LocationName: "Library", Seats: []model.SeatView{
				seat("a", model.StatusOccupied), seat("b", model.StatusAvailable), seat("c", model.StatusReserved),
			}},
			{FloorID: "f2", FloorName: "Level 2", LocationName: "Library", Seats: []model.SeatView{
				seat("d", model.StatusOccupied),
			}},
			{FloorID: "g1", FloorName: "Ground", LocationName: "Annex", Seats: []model.SeatView{
				seat("e", model.StatusBlocked), seat("f", model.StatusAvailable),
			}},
		},
	}
}

func TestCurrent(t *testing.T) {
	got := Current(levelSnapshot(), "")
	if got.Version != 3 || len(got.Floors) != 3 || len(got.Locations) != 2 {
		t.Fatalf("levels = %+v", got)
	}
	if got.Floors[0].Occupied != 1 || got.Floors[0].Total != 3 || got.Floors[0].Percentage != 33.33 {
		t.Fatalf("floor f1 = %+v", got.Floors[0])
	}
	annex, lib := got.Locations[0], got.Locations[1]
	if annex.LocationName != "Annex" || annex.Occupied != 0 || annex.Percentage != 0 {
		t.Fatalf("annex = %+v", annex)
	}
	if lib.Occupied != 2 || lib.Total != 4 || lib.Percentage != 50 {
		t.Fatalf("library = %+v", lib)
	}

	only := Current(levelSnapshot(), "library")
	if len(only.Locations) != 1 || len(only.Floors) != 2 {
		t.Fatalf("filtered = %+v", only)
	}
}

func TestCurrentNilSnapshot(t *testing.T) {
	got := Current(nil, "")
	if got.Locations == nil || got.Floors == nil {
		t.Fatal("empty levels should carry empty slices")
	}
}

type memHistory struct {
	recs []model.OccupancyRecord
	err  error
}

func (m *memHistory) Insert(_ context.Context, recs []model.OccupancyRecord) error {
	if m.err != nil {
		return m.err
	}
	m.recs = append(m.recs, recs...)
	return nil
}

func TestHistoryRecorder(t *testing.T) {
	store := &memHistory{}
	r := NewHistoryRecorder(store, 0, nil)
	if err := r.SnapshotPublished(context.Background(), &model.Snapshot{}); err != nil || len(store.recs) != 0 {
		t.Fatalf("unpublished snapshot recorded: %v %d", err, len(store.recs))
	}
	if err := r.SnapshotPublished(context.Background(), levelSnapshot()); err != nil {
		t.Fatal(err)
	}
	if len(store.recs) != 2 {
		t.Fatalf("records = %+v", store.recs)
	}
	lib := store.recs[1]
	if lib.LocationName != "Library" || lib.OccupancyCount != 2 || lib.TotalCapacity != 4 || lib.Percentage() != 50 {
		t.Fatalf("library record = %+v", lib)
	}
	if lib.DayOfWeek != 0 || lib.HourOfDay != 14 || lib.ID == "" || lib.ID == store.recs[0].ID {
		t.Fatalf("library record = %+v", lib)
	}

	store.err = errors.New("disk full")
	if err := r.SnapshotPublished(context.Background(), levelSnapshot()); err == nil {
		t.Fatal("store error not returned")
	}
}

func TestHistoryRecorderSpacing(t *testing.T) {
	store := &memHistory{}
	r := NewHistoryRecorder(store, 15*time.Minute, nil)
	snap := levelSnapshot()
	ctx := context.Background()

	if err := r.SnapshotPublished(ctx, snap); err != nil {
		t.Fatal(err)
	}
	later := *snap
	later.LastUpdated = snap.LastUpdated.Add(5 * time.Minute)
	if err := r.SnapshotPublished(ctx, &later); err != nil {
		t.Fatal(err)
	}
	if len(store.recs) != 2 {
		t.Fatalf("sample inside the interval stored: %d records", len(store.recs))
	}
	later.LastUpdated = snap.LastUpdated.Add(15 * time.Minute)
	if err := r.SnapshotPublished(ctx, &later); err != nil {
		t.Fatal(err)
	}
	if len(store.recs) != 4 {
		t.Fatalf("records = %d", len(store.recs))
	}
}

func TestSummarize(t *testing.T) {
	rec := func(loc string, hour, occ int) model.OccupancyRecord {
		return model.OccupancyRecord{LocationName: loc, HourOfDay: hour, OccupancyCount: occ, TotalCapacity: 10}
	}
	got := Summarize([]model.OccupancyRecord{
		rec("Library", 9, 2), rec("Library", 9, 4),
		rec("Library", 13, 9),
		rec("Library", 17, 6),
		rec("Library", 20, 1),
		rec("Annex", 10, 5),
	})
	if len(got) != 2 || got[0].Location != "Annex" {
		t.Fatalf("summaries = %+v", got)
	}
	lib := got[1]
	if lib.Samples != 5 || lib.AveragePercent != 44 {
		t.Fatalf("library = %+v", lib)
	}
	if !reflect.DeepEqual(lib.PeakHours, []int{13, 17, 9}) || !reflect.DeepEqual(lib.QuietHours, []int{20, 9, 17}) {
		t.Fatalf("hours peak %v quiet %v", lib.PeakHours, lib.QuietHours)
	}
	if len(Summarize(nil)) != 0 {
		t.Fatal("empty history summarised")
	}
}
