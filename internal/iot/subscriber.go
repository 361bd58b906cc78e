// Package iot listens for seat sensor reports on MQTT.  Sensors publish
// {"is_occupied":true,"timestamp":"..."} to seats/<seat_id>/occupancy.
package iot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/iliyamo/smart-seats/internal/model"
	"github.com/iliyamo/smart-seats/internal/occupancy"
)

// DefaultTopic matches every seat's occupancy topic.
const DefaultTopic = "seats/+/occupancy"

// Applier stores occupancy events.
type Applier interface {
	Apply(ctx context.Context, ev occupancy.Event) (model.SeatStatus, error)
}

// Config holds the broker settings.
type Config struct {
	BrokerURL string
	ClientID  string
	Topic     string
	QoS       byte
}

// Subscriber feeds sensor messages to an Applier.
type Subscriber struct {
	cfg     Config
	applier Applier
	log     *slog.Logger
	client  mqtt.Client
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewSubscriber returns a subscriber that is not yet connected.
func NewSubscriber(cfg Config, applier Applier, logger *slog.Logger) *Subscriber {
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.ClientID == "" {
		cfg.ClientID = fmt.Sprintf("smart-seats-%d", time.Now().UnixNano())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriber{cfg: cfg, applier: applier, log: logger.With("component", "iot")}
}

// Start connects to the broker and subscribes.  The subscription is
// renewed on every reconnect.  Handlers stop applying events once ctx
// is done.
func (s *Subscriber) Start(ctx context.Context) error {
	if s.cfg.BrokerURL == "" {
		return errors.New("iot: broker url is empty")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)

	opts := mqtt.NewClientOptions().
		AddBroker(s.cfg.BrokerURL).
		SetClientID(s.cfg.ClientID).
		SetOrderMatters(false).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		token := c.Subscribe(s.cfg.Topic, s.cfg.QoS, func(_ mqtt.Client, m mqtt.Message) {
			s.handle(m.Topic(), m.Payload())
		})
		token.Wait()
		if err := token.Error(); err != nil {
			s.log.Error("iot: subscribe failed", "topic", s.cfg.Topic, "err", err)
			return
		}
		s.log.Info("iot: subscribed", "broker", s.cfg.BrokerURL, "topic", s.cfg.Topic)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.log.Warn("iot: connection lost", "err", err)
	})

	s.client = mqtt.NewClient(opts)
	token := s.client.Connect()
	// with ConnectRetry the token only completes once connected, so do
	// not block startup on it
	if !token.WaitTimeout(5*time.Second) {
		s.log.Warn("iot: broker not reachable yet, retrying in background", "broker", s.cfg.BrokerURL)
		return nil
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("iot: connect: %w", err)
	}
	return nil
}

// Stop disconnects from the broker.
func (s *Subscriber) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.client != nil {
		s.client.Disconnect(250)
	}
}

func (s *Subscriber) handle(topic string, payload []byte) {
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return
	}
	ev, err := Decode(topic, payload)
	if err != nil {
		s.log.Warn("iot: dropping message", "topic", topic, "err", err)
		return
	}
	actx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := s.applier.Apply(actx, ev); err != nil {
		s.log.Warn("iot: apply failed", "seat", ev.SeatID, "err", err)
	}
}

// Decode turns one sensor message into an occupancy event.  The seat id
// comes from the topic unless the payload names one.
func Decode(topic string, payload []byte) (occupancy.Event, error) {
	var ev occupancy.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return occupancy.Event{}, fmt.Errorf("decode payload: %w", err)
	}
	if ev.SeatID == "" {
		id, ok := SeatIDFromTopic(topic)
		if !ok {
			return occupancy.Event{}, fmt.Errorf("no seat id in topic %q", topic)
		}
		ev.SeatID = id
	}
	if ev.Source == "" {
		ev.Source = "mqtt"
	}
	return ev, nil
}

// SeatIDFromTopic extracts <seat_id> from seats/<seat_id>/occupancy.
func SeatIDFromTopic(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "seats" || parts[2] != "occupancy" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
