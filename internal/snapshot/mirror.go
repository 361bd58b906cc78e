package snapshot

// This file mirrors published snapshots into Redis so that other
// instances of the API (and tools that do not run the worker) can read
// the latest seat state.  Payloads are JSON compressed with zstd.  The
// mirror is optional: a nil client turns every call into a no-op.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/smart-seats/internal/model"
)

// ErrNoMirroredSnapshot is returned by Load when Redis holds no snapshot.
var ErrNoMirroredSnapshot = errors.New("snapshot: no mirrored snapshot")

// RedisMirror writes each published snapshot to Redis.
type RedisMirror struct {
	rdb     *redis.Client
	prefix  string
	ttl     time.Duration
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewRedisMirror constructs a mirror.  prefix namespaces the keys
// ("<prefix>:latest" and the "<prefix>:updates" channel); ttl bounds how
// long a mirrored snapshot survives if the worker stops.
func NewRedisMirror(rdb *redis.Client, prefix string, ttl time.Duration) (*RedisMirror, error) {
	if prefix == "" {
		prefix = "seats:snapshot"
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("snapshot mirror: zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("snapshot mirror: zstd decoder: %w", err)
	}
	return &RedisMirror{rdb: rdb, prefix: prefix, ttl: ttl, encoder: enc, decoder: dec}, nil
}

func (m *RedisMirror) latestKey() string { return m.prefix + ":latest" }
func (m *RedisMirror) channel() string { return m.prefix + ":updates" }

// Name identifies the sink in logs.
func (m *RedisMirror) Name() string { return "redis-mirror" }

// SnapshotPublished stores snap and announces its version.
func (m *RedisMirror) SnapshotPublished(ctx context.Context, snap *model.Snapshot) error {
	if m == nil || m.rdb == nil || snap == nil {
		return nil
	}
	payload, err := m.Encode(snap)
	if err != nil {
		return err
	}
	if err := m.rdb.Set(ctx, m.latestKey(), payload, m.ttl).Err(); err != nil {
		return fmt.Errorf("snapshot mirror: set: %w", err)
	}
	if err := m.rdb.Publish(ctx, m.channel(), strconv.FormatUint(snap.Version, 10)).Err(); err != nil {
		return fmt.Errorf("snapshot mirror: publish: %w", err)
	}
	return nil
}

// Load reads the mirrored snapshot back.
func (m *RedisMirror) Load(ctx context.Context) (*model.Snapshot, error) {
	if m == nil || m.rdb == nil {
		return nil, ErrNoMirroredSnapshot
	}
	bs, err := m.rdb.Get(ctx, m.latestKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoMirroredSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot mirror: get: %w", err)
	}
	return m.Decode(bs)
}

// Encode serialises and compresses a snapshot.
func (m *RedisMirror) Encode(snap *model.Snapshot) ([]byte, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("snapshot mirror: marshal: %w", err)
	}
	return m.encoder.EncodeAll(raw, make([]byte, 0, len(raw)/4)), nil
}

// Decode reverses Encode.
func (m *RedisMirror) Decode(bs []byte) (*model.Snapshot, error) {
	raw, err := m.decoder.DecodeAll(bs, nil)
	if err != nil {
		return nil, fmt.Errorf("snapshot mirror: decompress: %w", err)
	}
	var snap model.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("snapshot mirror: unmarshal: %w", err)
	}
	return &snap, nil
}
