// Command seat-sim publishes fake seat sensor readings to an MQTT broker.
// Seat ids come from --seat or, when none are given, from the snapshot
// the server mirrors into Redis.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/spf13/pflag"

	"github.com/iliyamo/smart-seats/internal/config"
	"github.com/iliyamo/smart-seats/internal/snapshot"
)

type readingPayload struct {
	IsOccupied bool   `json:"is_occupied"`
	Timestamp  string `json:"timestamp"`
	Source     string `json:"source"`
}

func main() {
	brokerAddr := pflag.String("broker", "tcp://localhost:1883", "MQTT broker address")
	seatIDs := pflag.StringSlice("seat", nil, "seat id to report on (repeatable)")
	redisAddr := pflag.String("redis", "localhost:6379", "Redis address holding the mirrored snapshot")
	prefix := pflag.String("mirror-prefix", "seats:snapshot", "key prefix of the mirrored snapshot")
	interval := pflag.DurationP("interval", "i", 2*time.Second, "interval between published readings")
	occupiedProb := pflag.Float64("occupied-probability", 0.5, "chance that a reading reports the seat as occupied")
	qos := pflag.Uint8("qos", 1, "MQTT QoS for published readings")
	pflag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ids := *seatIDs
	if len(ids) == 0 {
		var err error
		ids, err = mirroredSeatIDs(ctx, *redisAddr, *prefix)
		if err != nil {
			log.Fatalf("no --seat given and no mirrored snapshot: %v", err)
		}
	}
	if len(ids) == 0 {
		log.Fatal("no seats to simulate")
	}

	clientID := fmt.Sprintf("seat-sim-%d", time.Now().UnixNano())
	opts := mqtt.NewClientOptions().AddBroker(*brokerAddr).SetClientID(clientID)
	opts = opts.SetOrderMatters(false)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("failed to connect to broker: %v", token.Error())
	}
	log.Printf("connected to MQTT broker %s as %s, simulating %d seats", *brokerAddr, clientID, len(ids))

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	publish := func() {
		seatID := ids[rand.IntN(len(ids))]
		payload := readingPayload{
			IsOccupied: rand.Float64() < *occupiedProb,
			Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
			Source:     "simulator",
		}
		data, err := json.Marshal(payload)
		if err != nil {
			log.Printf("failed to encode payload: %v", err)
			return
		}

		topic := fmt.Sprintf("seats/%s/occupancy", seatID)
		token := client.Publish(topic, byte(*qos), false, data)
		token.Wait()
		if err := token.Error(); err != nil {
			log.Printf("publish error: %v", err)
			return
		}
		log.Printf("published %s occupied=%t", topic, payload.IsOccupied)
	}

	publish()

	for {
		select {
		case <-ctx.Done():
			log.Print("received shutdown signal, disconnecting")
			client.Disconnect(250)
			return
		case <-ticker.C:
			publish()
		}
	}
}

func mirroredSeatIDs(ctx context.Context, addr, prefix string) ([]string, error) {
	rdb := config.NewRedisClient(config.RedisConfig{Addr: addr})
	if rdb == nil {
		return nil, fmt.Errorf("redis at %s not reachable", addr)
	}
	defer rdb.Close()

	mirror, err := snapshot.NewRedisMirror(rdb, prefix, 0)
	if err != nil {
		return nil, err
	}
	snap, err := mirror.Load(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(snap.Seats))
	for _, s := range snap.Seats {
		ids = append(ids, s.ID)
	}
	return ids, nil
}
