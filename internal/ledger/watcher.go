package ledger

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher nudges the verification poller when the backing store file changes,
// so a check can run before the fixed retry interval elapses. It is an
// optimization only: polling still runs on its own schedule when no events
// arrive, and the deadline contract is unchanged.
//
// The store directory is watched rather than the file itself because the host
// application writes through -wal/-shm siblings and may replace the file.
type Watcher struct {
	mu       sync.Mutex
	path     string
	debounce time.Duration
	log      zerolog.Logger

	nudges chan struct{}
	timer  *time.Timer
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher for the store at path. Nudges are debounced
// by the given delay (100ms when zero).
func NewWatcher(path string, debounce time.Duration, log zerolog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}
	return &Watcher{
		path:     path,
		debounce: debounce,
		log:      log,
		nudges:   make(chan struct{}, 1),
	}
}

// Nudges returns the channel the poller selects on. At most one nudge is
// buffered; coalescing is fine since any nudge just means "check now".
func (w *Watcher) Nudges() <-chan struct{} {
	return w.nudges
}

// Start begins watching. Failure to set up the watch is logged and otherwise
// ignored; interval polling covers for it.
func (w *Watcher) Start(ctx context.Context) {
	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go w.watchLoop(watchCtx)
}

// Stop ends the watch loop and waits for it to exit.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer w.wg.Done()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.log.Warn().Err(err).Msg("ledger watcher unavailable, relying on interval polling")
		return
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		w.log.Warn().Err(err).Str("dir", filepath.Dir(w.path)).Msg("cannot watch ledger directory")
		return
	}

	base := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			name := filepath.Base(event.Name)
			if name != base && !strings.HasPrefix(name, base+"-") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.debounceNudge()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("ledger watcher error")
		}
	}
}

func (w *Watcher) debounceNudge() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.nudges <- struct{}{}:
		default:
		}
	})
}
