package watch

import (
	"context"
	"log"
	"time"
)

// Source reports the current navigation state, typically the page URL or the
// ticket key extracted from it.
type Source func(ctx context.Context) (string, error)

// Inject re-runs the injection for the new state. It must be idempotent:
// a no-op when its target already exists.
type Inject func(ctx context.Context, state string) error

// Watcher re-runs injection whenever the observed state changes. The target
// application re-renders asynchronously after navigation, so injection waits
// a settle delay and is retried a bounded number of times before giving up
// until the next change.
type Watcher struct {
	source Source
	inject Inject

	interval    time.Duration
	settle      time.Duration
	maxAttempts int
}

type Option func(*Watcher)

func WithInterval(d time.Duration) Option    { return func(w *Watcher) { w.interval = d } }
func WithSettleDelay(d time.Duration) Option { return func(w *Watcher) { w.settle = d } }
func WithMaxAttempts(n int) Option           { return func(w *Watcher) { w.maxAttempts = n } }

func New(source Source, inject Inject, opts ...Option) *Watcher {
	w := &Watcher{
		source:      source,
		inject:      inject,
		interval:    2 * time.Second,
		settle:      1500 * time.Millisecond,
		maxAttempts: 5,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run observes until the context is cancelled. Injections run sequentially;
// the loop never starts a second injection while one is in progress.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var lastSeen string
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		state, err := w.source(ctx)
		if err != nil {
			log.Printf("watch: read state: %v", err)
			continue
		}
		if state == "" || state == lastSeen {
			continue
		}
		lastSeen = state

		if !sleep(ctx, w.settle) {
			return ctx.Err()
		}
		w.injectWithRetry(ctx, state)
	}
}

func (w *Watcher) injectWithRetry(ctx context.Context, state string) {
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		err := w.inject(ctx, state)
		if err == nil {
			return
		}
		log.Printf("watch: inject for %q failed (attempt %d/%d): %v", state, attempt, w.maxAttempts, err)
		if attempt < w.maxAttempts && !sleep(ctx, w.settle) {
			return
		}
	}
	log.Printf("watch: giving up on %q until the next change", state)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
