package snapshot

import (
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/smart-seats/internal/model"
)

func TestEncodeLineLiteral(t *testing.T) {
	cases := []struct {
		name string
		seat model.Seat
		want string
	}{
		{
			name: "library level 2",
			seat: model.Seat{
				SeatNumber:     "A-101",
				LocationName:   "Library",
				FloorName:      "Level 2",
				Status:         model.StatusAvailable,
				HasPowerOutlet: true,
				HasWifi:        false,
				HasAC:          true,
				Accessibility:  false,
			},
			want: "A-101|path=Library / Level 2|status=available|power=1|wifi=0|ac=1|accessible=0",
		},
		{
			name: "floor id fallback",
			seat: model.Seat{
				SeatNumber:    "B7",
				FloorID:       "f-9",
				Status:        model.StatusMaintenance,
				HasWifi:       true,
				Accessibility: true,
			},
			want: "B7|path=f-9|status=maintenance|power=0|wifi=1|ac=0|accessible=1",
		},
		{
			name: "floor name only",
			seat: model.Seat{SeatNumber: "C1", FloorName: "Ground", Status: model.StatusOccupied},
			want: "C1|path=Ground|status=occupied|power=0|wifi=0|ac=0|accessible=0",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EncodeLine(tc.seat); got != tc.want {
				t.Fatalf("EncodeLine:\n got %q\nwant %q", got, tc.want)
			}
		})
	}
}

func TestBuildOrdersFloorsAndSeats(t *testing.T) {
	seats := []model.Seat{
		{ID: "4", SeatNumber: "B-02", FloorID: "f2", FloorName: "Level 2", LocationName: "Library", Status: model.StatusOccupied},
		{ID: "1", SeatNumber: "A-02", FloorID: "f1", FloorName: "Level 1", LocationName: "Library", Status: model.StatusAvailable},
		{ID: "3", SeatNumber: "B-01", FloorID: "f2", FloorName: "Level 2", LocationName: "Library", Status: model.StatusAvailable, HasPowerOutlet: true},
		{ID: "2", SeatNumber: "A-01", FloorID: "f1", FloorName: "Level 1", LocationName: "Library", Status: model.StatusReserved},
		{ID: "5", SeatNumber: "H-1", FloorID: "h1", FloorName: "Ground", LocationName: "Hub", Status: model.StatusBlocked},
	}
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	snap := Build(seats, 3, now)

	want := "H-1|path=Hub / Ground|status=blocked|power=0|wifi=0|ac=0|accessible=0\n" +
		"A-01|path=Library / Level 1|status=reserved|power=0|wifi=0|ac=0|accessible=0\n" +
		"A-02|path=Library / Level 1|status=available|power=0|wifi=0|ac=0|accessible=0\n" +
		"B-01|path=Library / Level 2|status=available|power=1|wifi=0|ac=0|accessible=0\n" +
		"B-02|path=Library / Level 2|status=occupied|power=0|wifi=0|ac=0|accessible=0"
	if snap.Encoded != want {
		t.Fatalf("encoded mismatch:\n got %q\nwant %q", snap.Encoded, want)
	}
	if snap.Version != 3 || !snap.LastUpdated.Equal(now) {
		t.Fatalf("unexpected version/time: %d %v", snap.Version, snap.LastUpdated)
	}
	if len(snap.Floors) != 3 {
		t.Fatalf("expected 3 floors, got %d", len(snap.Floors))
	}
	gotPaths := []string{snap.Floors[0].Path, snap.Floors[1].Path, snap.Floors[2].Path}
	wantPaths := []string{"Hub / Ground", "Library / Level 1", "Library / Level 2"}
	for i := range wantPaths {
		if gotPaths[i] != wantPaths[i] {
			t.Fatalf("floor %d path = %q, want %q", i, gotPaths[i], wantPaths[i])
		}
	}
	if n := snap.Floors[1].Seats[0].SeatNumber; n != "A-01" {
		t.Fatalf("seats within floor not sorted, first is %s", n)
	}
	if len(snap.Seats) != len(seats) {
		t.Fatalf("flat list has %d seats", len(snap.Seats))
	}
	if seats[0].ID != "4" {
		t.Fatal("Build reordered its input")
	}
}

func TestNormalizeDegenerateRange(t *testing.T) {
	seats := []model.Seat{
		{ID: "a", X: 0.5, Y: 0.1},
		{ID: "b", X: 0.5, Y: 0.2},
		{ID: "c", X: 0.5, Y: 0.3},
	}
	snap := Build(seats, 1, time.Now())
	for _, v := range snap.Seats {
		if v.X != 5 {
			t.Fatalf("seat %s: x = %v, want 5", v.ID, v.X)
		}
	}
	ys := map[string]float64{}
	for _, v := range snap.Seats {
		ys[v.ID] = v.Y
	}
	if ys["a"] != 5 || ys["c"] != 95 || ys["b"] != 50 {
		t.Fatalf("unexpected y normalisation: %v", ys)
	}
}

func TestNormalizeRange(t *testing.T) {
	cases := []struct{ c, lo, hi, want float64 }{
		{0, 0, 1, 5},
		{1, 0, 1, 95},
		{0.25, 0, 1, 27.5},
		{0.7, 0.7, 0.7, 5},
	}
	for _, tc := range cases {
		if got := Normalize(tc.c, tc.lo, tc.hi); got != tc.want {
			t.Errorf("Normalize(%v,%v,%v) = %v, want %v", tc.c, tc.lo, tc.hi, got, tc.want)
		}
	}
}

func TestCacheEmptyBeforePublish(t *testing.T) {
	c := NewCache()
	snap := c.Get()
	if snap == nil {
		t.Fatal("Get returned nil before first publish")
	}
	if snap.Seats == nil || snap.Floors == nil || len(snap.Seats) != 0 {
		t.Fatal("empty snapshot must have non-nil empty lists")
	}
	if c.Ready() {
		t.Fatal("cache reports ready before publish")
	}
}

func TestCachePublishSwapsAtomically(t *testing.T) {
	c := NewCache()
	seats := []model.Seat{
		{ID: "1", SeatNumber: "A-1", FloorID: "f", Status: model.StatusAvailable},
		{ID: "2", SeatNumber: "A-2", FloorID: "f", Status: model.StatusOccupied},
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := c.Get()
				if snap.Version == 0 {
					continue
				}
				if len(snap.Seats) != 2 || snap.Encoded == "" || len(snap.Floors) != 1 {
					t.Errorf("torn snapshot observed: version=%d seats=%d", snap.Version, len(snap.Seats))
					return
				}
			}
		}()
	}
	var last uint64
	for i := 0; i < 200; i++ {
		snap := c.Publish(seats)
		if snap.Version <= last {
			t.Fatalf("version did not increase: %d after %d", snap.Version, last)
		}
		last = snap.Version
	}
	close(stop)
	wg.Wait()
	if !c.Ready() || c.Get().Version != 200 {
		t.Fatalf("unexpected final version %d", c.Get().Version)
	}
}

func TestMirrorEncodeDecode(t *testing.T) {
	m, err := NewRedisMirror(nil, "", 0)
	if err != nil {
		t.Fatalf("NewRedisMirror: %v", err)
	}
	snap := Build([]model.Seat{{ID: "1", SeatNumber: "A-101", FloorID: "f", FloorName: "L1", Status: model.StatusAvailable}}, 9, time.Unix(1700000000, 0))
	bs, err := m.Encode(snap)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	back, err := m.Decode(bs)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back.Version != 9 || back.Encoded != snap.Encoded || len(back.Floors) != 1 {
		t.Fatalf("round trip lost data: %+v", back)
	}
	// nil client is a no-op sink
	if err := m.SnapshotPublished(t.Context(), snap); err != nil {
		t.Fatalf("nil-client mirror returned %v", err)
	}
}
