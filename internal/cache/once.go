// Package cache provides the once-fetch store behind the client-side state
// containers: a single snapshot that is fetched at most once per lifecycle
// and shared between concurrent callers.
package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	applog "planejai/internal/log"
)

const defaultFetchTimeout = 30 * time.Second

// State is the lifecycle position of a Once store.
type State int

const (
	Idle State = iota
	Fetching
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Fetching:
		return "fetching"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Snapshot is a copy of the store's slot.
type Snapshot[T any] struct {
	Data    T
	Loading bool
	Fetched bool
	Err     string
}

// State derives the lifecycle state from the snapshot flags.
func (s Snapshot[T]) State() State {
	switch {
	case s.Loading:
		return Fetching
	case s.Fetched:
		return Ready
	case s.Err != "":
		return Failed
	default:
		return Idle
	}
}

// FetchFunc loads the value held by a Once store.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Option configures a Once store.
type Option func(*options)

type options struct {
	timeout time.Duration
	logger  *applog.Logger
}

// WithTimeout bounds every fetch. Zero or negative keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithLogger sets the logger used for fetch outcomes.
func WithLogger(l *applog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Once holds one fetched value. Fetch runs the underlying call at most once
// until Reset; callers that arrive while a fetch is running wait for it and
// receive the same result.
type Once[T any] struct {
	name    string
	fetch   FetchFunc[T]
	timeout time.Duration
	logger  *applog.Logger

	group singleflight.Group

	mu   sync.Mutex
	snap Snapshot[T]
	gen  uint64

	onReady func(T)
	onReset func()

	// afterRun, when set, runs once the flight has published but before
	// joiners are released.
	afterRun func()
}

// NewOnce creates an Idle store named name (used in logs).
func NewOnce[T any](name string, fetch FetchFunc[T], opts ...Option) *Once[T] {
	o := options{timeout: defaultFetchTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return &Once[T]{
		name:    name,
		fetch:   fetch,
		timeout: o.timeout,
		logger:  applog.OrDefault(o.logger, applog.ComponentCache),
	}
}

// OnReady registers fn to run whenever a fetch result is published. fn runs
// under the store lock, so a concurrent Reset either precedes it (and the
// result is dropped) or follows it. fn must not call back into the store.
// Register it before the first Fetch.
func (o *Once[T]) OnReady(fn func(T)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onReady = fn
}

// OnReset registers fn to run under the store lock on every Reset.
func (o *Once[T]) OnReset(fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onReset = fn
}

// Snapshot returns the current slot without fetching.
func (o *Once[T]) Snapshot() Snapshot[T] {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snap
}

// Fetch returns the stored snapshot when Ready, otherwise starts or joins the
// in-flight fetch and returns its outcome. Failures are reported through
// Snapshot.Err, never as a returned error. If ctx ends first, Fetch returns
// the current snapshot and the fetch carries on.
//
// Only the flight itself writes the slot, so a caller joining a flight that
// has already published cannot flip it back to loading.
func (o *Once[T]) Fetch(ctx context.Context) Snapshot[T] {
	o.mu.Lock()
	if o.snap.Fetched {
		s := o.snap
		o.mu.Unlock()
		return s
	}
	gen := o.gen
	o.mu.Unlock()

	runCtx := context.WithoutCancel(ctx)
	ch := o.group.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
		s := o.run(runCtx, gen)
		if o.afterRun != nil {
			o.afterRun()
		}
		return s, nil
	})

	select {
	case res := <-ch:
		return res.Val.(Snapshot[T])
	case <-ctx.Done():
		return o.Snapshot()
	}
}

func (o *Once[T]) run(ctx context.Context, gen uint64) Snapshot[T] {
	// A caller may have raced past the Fetched check just as a previous
	// flight for this generation completed.
	o.mu.Lock()
	if o.gen != gen || o.snap.Fetched {
		s := o.snap
		o.mu.Unlock()
		return s
	}
	o.snap.Loading = true
	o.snap.Err = ""
	o.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	v, err := o.fetch(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.gen != gen {
		// Reset while in flight; the result belongs to a finished lifecycle.
		o.logger.DebugContext(ctx, "Discarding fetch result after reset", "store", o.name)
		return o.snap
	}

	if err != nil {
		o.snap = Snapshot[T]{Err: err.Error()}
		o.logger.WarnContext(ctx, "Store fetch failed",
			"store", o.name,
			applog.FieldOperation, applog.OpFetch,
			applog.FieldError, err.Error(),
			applog.FieldDuration, time.Since(start).Milliseconds())
		return o.snap
	}

	o.snap = Snapshot[T]{Data: v, Fetched: true}
	if o.onReady != nil {
		o.onReady(v)
	}
	o.logger.DebugContext(ctx, "Store fetch completed",
		"store", o.name,
		applog.FieldOperation, applog.OpFetch,
		applog.FieldDuration, time.Since(start).Milliseconds())
	return o.snap
}

// Reset returns the store to Idle from any state. A fetch still in flight
// completes but its result is dropped.
func (o *Once[T]) Reset() {
	o.mu.Lock()
	o.gen++
	o.snap = Snapshot[T]{}
	if o.onReset != nil {
		o.onReset()
	}
	o.mu.Unlock()
	o.logger.Debug("Store reset", "store", o.name, applog.FieldOperation, applog.OpReset)
}
