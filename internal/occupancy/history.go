package occupancy

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/smart-seats/internal/model"
)

// HistoryStore persists occupancy samples.
type HistoryStore interface {
	Insert(ctx context.Context, records []model.OccupancyRecord) error
}

// HistoryRecorder samples published snapshots into the history store,
// one record per location, at most once per interval of snapshot time.
type HistoryRecorder struct {
	store HistoryStore
	every time.Duration
	log   *slog.Logger

	mu   sync.Mutex
	last time.Time
}

// NewHistoryRecorder returns a recorder writing to store.  every <= 0
// records every snapshot.
func NewHistoryRecorder(store HistoryStore, every time.Duration, logger *slog.Logger) *HistoryRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryRecorder{store: store, every: every, log: logger}
}

// Name identifies the recorder in worker logs.
func (r *HistoryRecorder) Name() string { return "occupancy-history" }

// SnapshotPublished stores one sample per location of snap unless the
// last stored sample is less than the interval older.  A failed insert
// is retried on the next snapshot.
func (r *HistoryRecorder) SnapshotPublished(ctx context.Context, snap *model.Snapshot) error {
	recs := Records(snap)
	if len(recs) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.last.IsZero() && snap.LastUpdated.Sub(r.last) < r.every {
		return nil
	}
	if err := r.store.Insert(ctx, recs); err != nil {
		return err
	}
	r.last = snap.LastUpdated
	r.log.Debug("occupancy: history recorded", "version", snap.Version, "locations", len(recs))
	return nil
}

// Records turns snap into one history record per location.
func Records(snap *model.Snapshot) []model.OccupancyRecord {
	if snap == nil || snap.Version == 0 {
		return nil
	}
	at := snap.LastUpdated.UTC()
	levels := Current(snap, "")
	out := make([]model.OccupancyRecord, 0, len(levels.Locations))
	for _, l := range levels.Locations {
		out = append(out, model.OccupancyRecord{
			ID:             uuid.NewString(),
			LocationName:   l.LocationName,
			RecordedAt:     at,
			OccupancyCount: l.Occupied,
			TotalCapacity:  l.Total,
			DayOfWeek:      (int(at.Weekday()) + 6) % 7,
			HourOfDay:      at.Hour(),
		})
	}
	return out
}
