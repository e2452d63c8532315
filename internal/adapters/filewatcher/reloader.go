package filewatcher

import (
	"context"
	"time"

	"github.com/dipa-ai/dipa/internal/domain/ports"
	"github.com/dipa-ai/dipa/internal/log"
)

// DefaultDebounce is how long the reloader waits after the last file
// event before triggering a rebuild. Editors and copies produce bursts
// of events for a single logical change.
const DefaultDebounce = 2 * time.Second

// Reloader consumes file events and invokes a rebuild callback once per
// quiet period.
type Reloader struct {
	watcher  ports.FileWatcher
	reload   func(ctx context.Context) error
	debounce time.Duration
	logger   log.Logger
}

// NewReloader creates a reloader around watcher. reload is called after
// each debounced burst of changes.
func NewReloader(watcher ports.FileWatcher, reload func(ctx context.Context) error, debounce time.Duration, logger log.Logger) *Reloader {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Reloader{
		watcher:  watcher,
		reload:   reload,
		debounce: debounce,
		logger:   logger,
	}
}

// Run watches dir until ctx is cancelled. It blocks; run it in a
// goroutine.
func (r *Reloader) Run(ctx context.Context, dir string) error {
	events, err := r.watcher.Watch(ctx, dir)
	if err != nil {
		return err
	}

	timer := time.NewTimer(r.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			r.logger.Debug("document change detected", "path", event.Path)
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(r.debounce)
			pending = true
		case <-timer.C:
			pending = false
			if err := r.reload(ctx); err != nil {
				r.logger.Error("index reload failed", "error", err)
			}
		}
	}
}
