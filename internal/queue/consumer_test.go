package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/smart-seats/internal/model"
	"github.com/iliyamo/smart-seats/internal/occupancy"
)

type captureApplier struct {
	got []occupancy.Event
}

func (c *captureApplier) Apply(_ context.Context, ev occupancy.Event) (model.SeatStatus, error) {
	c.got = append(c.got, ev)
	return ev.Resolve()
}

func TestHandleMessage(t *testing.T) {
	app := &captureApplier{}
	c := NewOccupancyConsumer("", app, nil)

	if err := c.HandleMessage(context.Background(), []byte(`{"seat_id":"s1","status":"reserved"}`)); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(app.got) != 1 || app.got[0].Source != "amqp" || app.got[0].Status != "reserved" {
		t.Fatalf("applied %+v", app.got)
	}

	err := c.HandleMessage(context.Background(), []byte(`{"seat_id":"s1","status":"party"}`))
	if !errors.Is(err, occupancy.ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
	if err := c.HandleMessage(context.Background(), []byte(`[]`)); err == nil {
		t.Fatal("expected unmarshal error")
	}
}
