package occupancy

import (
	"context"
	"strings"
)

// MaxBatch caps the events accepted in one batch.
const MaxBatch = 500

// BatchFailure names one event of a batch that was not applied.
type BatchFailure struct {
	SeatID string `json:"seat_id"`
	Error  string `json:"error"`
}

// BatchResult summarises ApplyBatch.
type BatchResult struct {
	Updated int            `json:"updated_count"`
	Total   int            `json:"total_events"`
	Failed  []BatchFailure `json:"failed"`
}

// ApplyBatch applies events in order.  An invalid event or unknown seat
// is recorded in Failed and does not stop the rest; a cancelled ctx
// fails the remaining events.
func (a *Applier) ApplyBatch(ctx context.Context, events []Event) BatchResult {
	res := BatchResult{Total: len(events), Failed: []BatchFailure{}}
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			res.Failed = append(res.Failed, BatchFailure{SeatID: strings.TrimSpace(ev.SeatID), Error: err.Error()})
			continue
		}
		if _, err := a.Apply(ctx, ev); err != nil {
			res.Failed = append(res.Failed, BatchFailure{SeatID: strings.TrimSpace(ev.SeatID), Error: err.Error()})
			continue
		}
		res.Updated++
	}
	if len(res.Failed) > 0 {
		a.log.Info("occupancy: batch applied with failures", "updated", res.Updated, "failed", len(res.Failed))
	}
	return res
}
