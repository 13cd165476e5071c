package views

import (
	"context"
	"time"

	"github.com/swaroop-labs/portalctl/internal/infrastructure/logging"
	"github.com/swaroop-labs/portalctl/internal/realtime"
)

// RefreshFunc re-fetches one view's data. Errors are the refresher's to
// report; the watcher only drives timing.
type RefreshFunc func(ctx context.Context)

// Watcher drives refreshes from realtime events and a fallback ticker.
//
// Bind all event mappings before Run: bindings register handlers on the
// channel, and the channel requires registration before Connect. Handlers
// only nudge the run loop, so the channel's read goroutine never blocks on
// a slow fetch.
type Watcher struct {
	channel  *realtime.Channel
	interval time.Duration
	logger   *logging.Logger

	nudges    chan RefreshFunc
	refreshes []RefreshFunc // every bound refresh, for the periodic sweep
}

// NewWatcher creates a watcher over the given channel. interval is the
// periodic fallback refresh period; zero disables the ticker.
func NewWatcher(channel *realtime.Channel, interval time.Duration, logger *logging.Logger) *Watcher {
	return &Watcher{
		channel:  channel,
		interval: interval,
		logger:   logger,
		nudges:   make(chan RefreshFunc, 16),
	}
}

// Bind maps a pushed event type to a refresh. The event payload is ignored
// on purpose: pushes are invalidation signals, and the refresh re-fetches
// the authoritative state.
func (w *Watcher) Bind(eventType string, refresh RefreshFunc) {
	w.refreshes = append(w.refreshes, refresh)
	w.channel.On(eventType, func(realtime.Event) {
		select {
		case w.nudges <- refresh:
		default:
			// The loop is already behind; the periodic sweep catches up.
			w.logger.Debug("dropping refresh nudge, queue full", "type", eventType)
		}
	})
}

// Run connects the channel, performs an initial full refresh and then
// serves nudges and ticks until ctx is cancelled. The channel is closed on
// the way out. A failed initial connect is returned; refresh errors are
// logged and the loop keeps going.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.channel.Connect(ctx); err != nil {
		return err
	}
	defer w.channel.Close()

	w.refreshAll(ctx)

	var tick <-chan time.Time
	if w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case refresh := <-w.nudges:
			refresh(ctx)
		case <-tick:
			w.logger.Debug("periodic refresh sweep")
			w.refreshAll(ctx)
		}
	}
}

// refreshAll runs every bound refresh once, sequentially.
func (w *Watcher) refreshAll(ctx context.Context) {
	for _, refresh := range w.refreshes {
		refresh(ctx)
	}
}
