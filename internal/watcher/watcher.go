package watcher

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nguyentantai21042004/voxdrop/internal/logger"
)

type implWatcher struct {
	inputDir string
	handler  EventHandler
	logger   logger.Logger
	watcher  *fsnotify.Watcher
	opts     Options
	sleep    func(time.Duration)

	stopOnce sync.Once
	done     chan struct{}
}

// Start consumes creation events until ctx is done or Stop is called.
// The handler runs on this goroutine, so the settle delay holds back
// later events rather than the worker.
func (w *implWatcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "File watcher started. Monitoring: %s", w.inputDir)
	w.logger.Info(ctx, "Supported formats: %s", strings.Join(SupportedFormats(), ", "))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "File watcher stopped")
			return ctx.Err()

		case <-w.done:
			w.logger.Info(ctx, "File watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.stopped() {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}

			if event.Op&fsnotify.Create == fsnotify.Create {
				w.OnFileCreated(ctx, event.Name, isDir(event.Name))
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				if w.stopped() {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(ctx, "Watcher error: %v", err)
		}
	}
}

// OnFileCreated applies the format gate, waits for the file to settle and
// hands the path to the handler. Directory events are ignored.
func (w *implWatcher) OnFileCreated(ctx context.Context, path string, isDirectory bool) {
	if isDirectory {
		return
	}

	if !IsSupported(path) {
		w.logger.Debug(ctx, "Ignoring unsupported file: %s", path)
		w.opts.OnIgnored(path)
		return
	}

	w.logger.Info(ctx, "New audio detected: %s", path)

	// A writer slower than the delay can still race the pipeline.
	if w.opts.SettleDelay > 0 {
		w.sleep(w.opts.SettleDelay)
	}
	if w.opts.StabilityChecks > 0 {
		if !w.waitStable(path) {
			w.logger.Warn(ctx, "File size did not settle within %s, queueing anyway: %s", w.opts.StabilityTimeout, path)
		}
	}

	if err := w.handler(ctx, path); err != nil {
		w.logger.Error(ctx, "Failed to queue %s: %v", path, err)
	}
}

// waitStable polls the file size until it is unchanged for the configured
// number of consecutive checks.
func (w *implWatcher) waitStable(path string) bool {
	interval := w.opts.SettleDelay
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	deadline := time.Now().Add(w.opts.StabilityTimeout)

	last := int64(-1)
	stable := 0
	for time.Now().Before(deadline) {
		info, err := os.Stat(path)
		if err != nil {
			return false
		}
		if info.Size() == last {
			stable++
			if stable >= w.opts.StabilityChecks {
				return true
			}
		} else {
			stable = 0
			last = info.Size()
		}
		w.sleep(interval)
	}
	return false
}

// Stop closes the file watcher
func (w *implWatcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}

func (w *implWatcher) stopped() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
