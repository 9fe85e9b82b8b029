package extractor

import (
	"context"
	"time"
)

// InputSource yields the ordered task list. Ordering must be stable across
// runs; the resume protocol depends on it.
type InputSource interface {
	Tasks() ([]URLTask, error)
}

// ProgressStore persists checkpoints durably. Save must be atomic: a reader
// never observes a partially written checkpoint.
type ProgressStore interface {
	Save(cp Checkpoint) error
	Load() (Checkpoint, bool, error)
}

// ResultSink appends completed feature records durably. Appends need not be
// atomic across a crash, but previously written rows must never be corrupted.
type ResultSink interface {
	AppendBatch(records []FeatureRecord) error
}

// Session is a live handle to the external browser-automation engine. Any
// operation may return an error wrapping ErrSessionDead, which signals the
// handle itself is unusable as opposed to an ordinary page-load failure.
type Session interface {
	// Navigate loads url, blocking at most timeout, and returns the
	// post-navigation URL and the elapsed load time.
	Navigate(ctx context.Context, url string, timeout time.Duration) (finalURL string, elapsed time.Duration, err error)
	// CurrentURL reports the page URL after the last navigation.
	CurrentURL(ctx context.Context) (string, error)
	// QueryCounts returns the number of elements matching each CSS selector.
	QueryCounts(ctx context.Context, selectors ...string) (map[string]int, error)
	// PageHTML returns the rendered document markup.
	PageHTML(ctx context.Context) (string, error)
	// IsAlive probes whether the handle still responds.
	IsAlive(ctx context.Context) bool
	// Close releases the handle. Safe to call on a dead session.
	Close(ctx context.Context) error
}

// SessionFactory constructs a fresh Session. The engine owns exactly one
// session at a time and replaces it through the factory after session death.
type SessionFactory func(ctx context.Context) (Session, error)
