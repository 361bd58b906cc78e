// Package scheduler drives the periodic drift tick off the request path.
// A tick reads every seat, lets the drift simulator nudge occupancy,
// commits the changes and publishes a fresh snapshot.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iliyamo/smart-seats/internal/drift"
	"github.com/iliyamo/smart-seats/internal/model"
	"github.com/iliyamo/smart-seats/internal/snapshot"
)

// Store is the subset of the seat repository a tick needs.
type Store interface {
	ReadAll(ctx context.Context) ([]model.Seat, error)
	Commit(ctx context.Context, changes []model.StatusChange) error
}

// Sink receives every published snapshot.  Sink failures are logged and
// never undo the publish.
type Sink interface {
	Name() string
	SnapshotPublished(ctx context.Context, snap *model.Snapshot) error
}

// ErrAlreadyStarted is returned by Start on a running worker.
var ErrAlreadyStarted = errors.New("scheduler: already started")

// Options configures a Worker.
type Options struct {
	Interval    time.Duration
	TickTimeout time.Duration
	Store       Store
	Simulator   *drift.Simulator
	Cache       *snapshot.Cache
	Sinks       []Sink
	Logger      *slog.Logger
}

// Worker is the single writer of seat snapshots.  Construct it once and
// hand it to whatever needs to start or stop it.
type Worker struct {
	opts Options
	log  *slog.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}

	// tickMu serialises ticks so the simulator's random source is only
	// touched by one goroutine at a time.
	tickMu sync.Mutex
}

// New validates opts and returns a stopped worker.
func New(opts Options) (*Worker, error) {
	if opts.Store == nil || opts.Simulator == nil || opts.Cache == nil {
		return nil, errors.New("scheduler: store, simulator and cache are required")
	}
	if opts.Interval <= 0 {
		opts.Interval = 60 * time.Second
	}
	if opts.TickTimeout <= 0 {
		opts.TickTimeout = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{opts: opts, log: logger}, nil
}

// Start runs one tick synchronously so the cache is populated before the
// caller begins serving, then keeps ticking in the background until ctx
// is cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return ErrAlreadyStarted
	}
	w.started = true
	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.mu.Unlock()

	if err := w.Tick(ctx); err != nil {
		w.log.Warn("seat-worker: initial tick failed", "err", err)
	}
	go w.loop(loopCtx)
	w.log.Info("seat-worker: started", "interval", w.opts.Interval)
	return nil
}

// Stop cancels the wait between ticks and blocks until any tick in
// progress has finished.  It is safe to call more than once.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (w *Worker) loop(ctx context.Context) {
	defer close(w.done)
	timer := time.NewTimer(w.opts.Interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info("seat-worker: stopped")
			return
		case <-timer.C:
		}
		// select picks at random when the timer and Stop race
		if ctx.Err() != nil {
			w.log.Info("seat-worker: stopped")
			return
		}
		if err := w.Tick(ctx); err != nil {
			w.log.Warn("seat-worker: tick discarded", "err", err)
		}
		if ctx.Err() != nil {
			w.log.Info("seat-worker: stopped")
			return
		}
		// measured from tick completion
		timer.Reset(w.opts.Interval)
	}
}

// Tick performs one read, drift, commit and publish cycle.  It detaches
// from ctx cancellation so a shutdown never interrupts a tick midway;
// TickTimeout bounds it instead.  On a read or commit error nothing is
// published and the previous snapshot stays current.
func (w *Worker) Tick(ctx context.Context) error {
	w.tickMu.Lock()
	defer w.tickMu.Unlock()

	tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.opts.TickTimeout)
	defer cancel()

	seats, err := w.opts.Store.ReadAll(tctx)
	if err != nil {
		return fmt.Errorf("read seats: %w", err)
	}
	next, changes := w.opts.Simulator.Apply(seats)
	if len(changes) > 0 {
		if err := w.opts.Store.Commit(tctx, changes); err != nil {
			return fmt.Errorf("commit %d changes: %w", len(changes), err)
		}
	}
	snap := w.opts.Cache.Publish(next)
	w.log.Debug("seat-worker: snapshot published",
		"version", snap.Version, "seats", len(snap.Seats), "changes", len(changes))

	for _, s := range w.opts.Sinks {
		if err := s.SnapshotPublished(tctx, snap); err != nil {
			w.log.Warn("seat-worker: sink failed", "sink", s.Name(), "err", err)
		}
	}
	return nil
}
