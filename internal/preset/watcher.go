package preset

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/lsystree/internal/logger"
)

// DefaultDebounce collapses editor save bursts into one reload.
const DefaultDebounce = 150 * time.Millisecond

// Watcher reloads a preset file whenever it changes and hands the result to
// a callback. Load errors are passed to the callback too, so a broken file
// does not stop the watch.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(*Library, error)

	fsw  *fsnotify.Watcher
	done chan struct{}
	log  *zap.Logger
}

// NewWatcher returns a watcher for path. debounce <= 0 uses DefaultDebounce.
func NewWatcher(path string, debounce time.Duration, onChange func(*Library, error)) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		path:     path,
		debounce: debounce,
		onChange: onChange,
		done:     make(chan struct{}),
		log:      logger.Named("preset"),
	}
}

// Start begins watching. The parent directory is watched so that editors
// replacing the file by rename are seen. Watching stops when ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	abs, err := filepath.Abs(w.path)
	if err != nil {
		return err
	}
	w.path = abs

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	w.fsw = fsw

	go w.loop(ctx)
	return nil
}

// Done is closed once the watcher has stopped.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	defer w.fsw.Close()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer, timerC = nil, nil
			lib, err := LoadFile(w.path)
			if err != nil {
				w.log.Warn("preset reload failed", zap.String("path", w.path), zap.Error(err))
			} else {
				w.log.Info("presets reloaded", zap.String("path", w.path), zap.Int("count", len(lib.Presets)))
			}
			if w.onChange != nil {
				w.onChange(lib, err)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}
