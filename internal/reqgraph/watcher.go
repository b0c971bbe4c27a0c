package reqgraph

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher batches raw fsnotify events into FSEvent batches and feeds them to
// a Tracker's NextBuild on a debounce timer, then invokes a rebuild
// callback. Its start/stop/ticker shape mirrors a periodic scheduler that
// runs one job per ticker tick; here the "tick" is debounce-settling after
// a burst of filesystem writes rather than a fixed interval.
type Watcher struct {
	tracker  *Tracker
	logger   *slog.Logger
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

// NewWatcher creates a Watcher wrapping a real fsnotify watcher. Callers
// must call AddDir for every directory that should be observed before Run.
func NewWatcher(tracker *Tracker, logger *slog.Logger, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = 50 * time.Millisecond
	}
	return &Watcher{tracker: tracker, logger: logger, debounce: debounce, watcher: fw}, nil
}

// AddDir registers a directory for fsnotify watching.
func (w *Watcher) AddDir(dir string) error {
	return w.watcher.Add(dir)
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Run blocks, translating fsnotify events into debounced NextBuild calls,
// invoking onBuild after each settled batch, until ctx is cancelled or the
// underlying watcher errors out.
func (w *Watcher) Run(ctx context.Context, onBuild func([]NodeID)) error {
	pending := make(map[string]FSEventKind)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	flush := func() {
		if len(pending) == 0 {
			return
		}
		events := make([]FSEvent, 0, len(pending))
		for path, kind := range pending {
			events = append(events, FSEvent{Kind: kind, Path: path})
		}
		pending = make(map[string]FSEventKind)
		invalidated := w.tracker.NextBuild(events)
		w.logger.Debug("rebuild triggered", "invalidated", len(invalidated))
		if onBuild != nil {
			onBuild(invalidated)
		}
	}

	for {
		var timerC <-chan time.Time
		if timer != nil {
			timerC = timer.C
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.watcher.Events:
			if !ok {
				flush()
				return nil
			}
			pending[ev.Name] = translateOp(ev.Op)
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)

		case <-timerC:
			flush()
			timer = nil
		}
	}
}

func translateOp(op fsnotify.Op) FSEventKind {
	switch {
	case op&fsnotify.Create != 0:
		return EventCreate
	case op&fsnotify.Remove != 0, op&fsnotify.Rename != 0:
		return EventDelete
	default:
		return EventUpdate
	}
}
