package watcher

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nguyentantai21042004/voxdrop/internal/logger"
)

// Options tune how long a new file is given to settle before hand-off
type Options struct {
	SettleDelay      time.Duration
	StabilityChecks  int
	StabilityTimeout time.Duration
	// OnIgnored is called for every created path the format gate rejects.
	OnIgnored func(path string)
}

// New creates a Watcher on a single, non-recursive directory
func New(inputDir string, handler EventHandler, log logger.Logger, opts Options) (Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(inputDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	return newImpl(inputDir, handler, log, opts, watcher), nil
}

func newImpl(inputDir string, handler EventHandler, log logger.Logger, opts Options, fw *fsnotify.Watcher) *implWatcher {
	if opts.OnIgnored == nil {
		opts.OnIgnored = func(string) {}
	}
	return &implWatcher{
		inputDir: inputDir,
		handler:  handler,
		logger:   log,
		watcher:  fw,
		opts:     opts,
		sleep:    time.Sleep,
		done:     make(chan struct{}),
	}
}
