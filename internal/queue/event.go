// Package queue defines message payloads exchanged over the message broker
// and the consumer for seat occupancy events.
package queue

import "time"

const (
    // SnapshotQueueName carries SnapshotPublishedEvent after every tick.
    SnapshotQueueName = "seats.snapshot.published"
    // OccupancyQueueName carries OccupancyEvent from reservation and
    // sensor gateways.
    OccupancyQueueName = "seats.occupancy"
)

// SnapshotPublishedEvent is published when the worker makes a new seat
// snapshot visible. It carries the counts so downstream consumers can
// chart occupancy without reading the snapshot itself.
type SnapshotPublishedEvent struct {
    Version     uint64         `json:"version"`
    PublishedAt string         `json:"published_at"`
    TotalSeats  int            `json:"total_seats"`
    Floors      int            `json:"floors"`
    Counts      map[string]int `json:"counts"`
}

// OccupancyEvent asks for one seat's status to be set. Status is one of
// available, occupied, reserved, maintenance or blocked.
type OccupancyEvent struct {
    SeatID     string    `json:"seat_id"`
    Status     string    `json:"status"`
    Source     string    `json:"source"`
    OccurredAt time.Time `json:"occurred_at,omitempty"`
}
