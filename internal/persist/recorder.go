package persist

import (
	"context"
	"sync"
	"time"

	"spades_server/internal/logger"
)

// Recorder is a per-game asynchronous snapshot writer. The table loop
// submits a snapshot after every applied intent and never blocks on the
// database; the recorder's goroutine drains them in order.
//
// Snapshots from the same round coalesce: while a write is in flight, a
// newer same-round snapshot replaces the queued one, since each snapshot
// carries the whole round and its writes are upserts. Snapshots that move
// to a new round are queued behind the old round's final snapshot so the
// round-close rows are never skipped.
type Recorder struct {
	store  *Store
	gameID string

	mu      sync.Mutex
	queue   []*Snapshot
	wake    chan struct{}
	closing bool
	done    chan struct{}
}

func NewRecorder(store *Store, gameID string) *Recorder {
	r := &Recorder{
		store:  store,
		gameID: gameID,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

// Submit hands a snapshot to the writer. Safe to call from the table loop
// only; the snapshot must not be mutated after submission.
func (r *Recorder) Submit(snap *Snapshot) {
	r.mu.Lock()
	if r.closing {
		r.mu.Unlock()
		return
	}
	if n := len(r.queue); n > 0 && sameRound(r.queue[n-1], snap) {
		r.queue[n-1] = snap
	} else {
		r.queue = append(r.queue, snap)
	}
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func sameRound(a, b *Snapshot) bool {
	if a.Round == nil || b.Round == nil {
		return a.Round == b.Round
	}
	return a.Round.Number == b.Round.Number
}

// Close flushes the queue and stops the writer goroutine.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closing {
		r.mu.Unlock()
		<-r.done
		return
	}
	r.closing = true
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
	<-r.done
}

func (r *Recorder) run() {
	defer close(r.done)
	for {
		snap := r.next()
		if snap == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := r.store.write(ctx, snap)
		cancel()
		if err != nil {
			// The next snapshot of the round subsumes this one, so a
			// transient failure costs nothing but this log line.
			logger.Error("snapshot write failed", "game_id", r.gameID, "err", err)
		}
	}
}

// next blocks until a snapshot is queued, or returns nil when the recorder
// is closing and the queue is drained.
func (r *Recorder) next() *Snapshot {
	for {
		r.mu.Lock()
		if len(r.queue) > 0 {
			snap := r.queue[0]
			r.queue = r.queue[1:]
			r.mu.Unlock()
			return snap
		}
		closing := r.closing
		r.mu.Unlock()
		if closing {
			return nil
		}
		<-r.wake
	}
}
