package application

import (
	"context"
	"sync"
	"time"

	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/domain"
)

// debounceTimer is the delayed-callback handle the debouncer schedules.
// It is a tiny seam over time.AfterFunc so tests can drive a virtual clock.
type debounceTimer interface {
	Stop() bool
}

type timerFactory func(d time.Duration, fn func()) debounceTimer

type realTimer struct{ t *time.Timer }

func (r realTimer) Stop() bool { return r.t.Stop() }

func stdTimerFactory(d time.Duration, fn func()) debounceTimer {
	return realTimer{t: time.AfterFunc(d, fn)}
}

// emitFunc issues one settled query. Debounced submits invoke it on the
// settling timer's goroutine with a background context; SubmitImmediate
// invokes it on the caller's goroutine and hands the outcome back.
type emitFunc func(context.Context, domain.SearchQuery) ([]domain.Candidate, error)

// Debouncer coalesces a stream of query-intent updates into at most one
// emit per settling interval. It is a two-state machine: idle, or pending
// with exactly one armed timer. A new Submit supersedes the pending timer
// before it can fire; superseded timers that already woke up are fenced by
// a sequence check so no window ever emits twice.
type Debouncer struct {
	mu       sync.Mutex
	interval time.Duration
	newTimer timerFactory
	emit     emitFunc

	timer   debounceTimer
	query   domain.SearchQuery
	seq     uint64
	pending bool
}

func NewDebouncer(interval time.Duration, emit emitFunc) *Debouncer {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Debouncer{
		interval: interval,
		newTimer: stdTimerFactory,
		emit:     emit,
	}
}

// Submit records the latest query and (re)starts the settling timer.
// An all-blank query is never scheduled.
func (d *Debouncer) Submit(query domain.SearchQuery) error {
	if err := query.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.disarmLocked()
	d.seq++
	d.query = query
	d.pending = true
	seq := d.seq
	d.timer = d.newTimer(d.interval, func() { d.fire(seq) })
	return nil
}

// SubmitImmediate bypasses the settling timer: any pending query is
// discarded and the given one is emitted synchronously, returning the
// emit's outcome to the caller.
func (d *Debouncer) SubmitImmediate(ctx context.Context, query domain.SearchQuery) ([]domain.Candidate, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.disarmLocked()
	d.seq++
	d.mu.Unlock()
	return d.emit(ctx, query)
}

// Cancel discards the pending query, if any, without emitting.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.disarmLocked()
	d.seq++
}

func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if !d.pending || seq != d.seq {
		// Superseded between wake-up and lock acquisition.
		d.mu.Unlock()
		return
	}
	query := d.query
	d.pending = false
	d.timer = nil
	d.mu.Unlock()
	d.emit(context.Background(), query)
}

func (d *Debouncer) disarmLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = false
}
