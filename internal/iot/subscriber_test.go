package iot

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/iliyamo/smart-seats/internal/model"
	"github.com/iliyamo/smart-seats/internal/occupancy"
)

type recordingApplier struct {
	events []occupancy.Event
}

func (r *recordingApplier) Apply(_ context.Context, ev occupancy.Event) (model.SeatStatus, error) {
	r.events = append(r.events, ev)
	return ev.Resolve()
}

func TestSeatIDFromTopic(t *testing.T) {
	cases := map[string]string{
		"seats/abc-123/occupancy": "abc-123",
		"seats//occupancy":        "",
		"seats/abc/readings":      "",
		"beacons/abc/occupancy":   "",
		"seats/a/b/occupancy":     "",
	}
	for topic, want := range cases {
		got, ok := SeatIDFromTopic(topic)
		if got != want || ok != (want != "") {
			t.Errorf("%q: got %q %v", topic, got, ok)
		}
	}
}

func TestDecode(t *testing.T) {
	ev, err := Decode("seats/s7/occupancy", []byte(`{"is_occupied":true,"timestamp":"2025-01-02T03:04:05Z"}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.SeatID != "s7" || ev.Source != "mqtt" || ev.IsOccupied == nil || !*ev.IsOccupied {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Timestamp.Year() != 2025 {
		t.Fatalf("timestamp = %v", ev.Timestamp)
	}

	ev, err = Decode("seats/s7/occupancy", []byte(`{"seat_id":"s8","status":"reserved","source":"desk"}`))
	if err != nil || ev.SeatID != "s8" || ev.Source != "desk" {
		t.Fatalf("payload fields should win: %+v %v", ev, err)
	}

	if _, err := Decode("seats/s7/occupancy", []byte(`not json`)); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := Decode("other/topic", []byte(`{"is_occupied":false}`)); err == nil {
		t.Fatal("expected missing seat id error")
	}
}

func TestHandleAppliesEvent(t *testing.T) {
	app := &recordingApplier{}
	s := NewSubscriber(Config{BrokerURL: "tcp://unused:1883"}, app, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.handle("seats/s1/occupancy", []byte(`{"is_occupied":false}`))
	s.handle("seats/s1/occupancy", []byte(`{`))
	if len(app.events) != 1 || app.events[0].SeatID != "s1" {
		t.Fatalf("events = %+v", app.events)
	}
}
