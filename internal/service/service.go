package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nguyentantai21042004/voxdrop/internal/logger"
	"github.com/nguyentantai21042004/voxdrop/internal/processor"
	"github.com/nguyentantai21042004/voxdrop/internal/watcher"
)

// Start prepares the directories, loads the model, launches the worker and
// attaches the watcher. It returns once the watcher is registered; the event
// loop keeps running until Stop or ctx is done. A model that cannot be loaded
// is reported before any watch is registered.
func (s *Service) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	if err := ensureDirectories(s.cfg.Paths.Input, s.cfg.Paths.Output); err != nil {
		return err
	}

	model, err := s.loadModel(s.cfg.Paths.Model, s.cfg.Recognizer)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	s.model = model
	s.logger.Info(ctx, "Model loaded: %s", model.Name())

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	var opts []processor.Option
	if s.archive != nil {
		opts = append(opts, processor.WithArchive(s.archive))
	}
	if s.metrics != nil {
		opts = append(opts, processor.WithRecorder(s.metrics))
	}
	gw := stoppableGateway{Gateway: s.gateway, shutdown: ctx}
	s.proc = processor.New(s.cfg, s.executor, model, gw, s.logger, opts...)

	s.running.Store(true)

	s.wg.Add(1)
	go s.work(ctx)

	w, err := s.newWatcher(s.cfg.Paths.Input, s.enqueue, s.logger, watcher.Options{
		SettleDelay:      s.cfg.Watcher.SettleDelay,
		StabilityChecks:  s.cfg.Watcher.StabilityChecks,
		StabilityTimeout: s.cfg.Watcher.StabilityTimeout,
		OnIgnored:        s.ignored,
	})
	if err != nil {
		s.Stop()
		return fmt.Errorf("create watcher: %w", err)
	}
	s.watcher = w

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error(ctx, "Watcher error: %v", err)
			select {
			case s.errs <- err:
			default:
			}
		}
	}()

	return nil
}

// Stop stops the watcher, lets the worker finish the file it holds and
// releases the model. Queued files that were not picked up stay on disk.
// Only a delivery still waiting for its peer is aborted. It is safe to call
// more than once.
func (s *Service) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		s.running.Store(false)

		if s.watcher != nil {
			if werr := s.watcher.Stop(); werr != nil {
				err = fmt.Errorf("stop watcher: %w", werr)
			}
		}
		if s.cancel != nil {
			s.cancel()
		}
		s.wg.Wait()

		if s.model != nil {
			if merr := s.model.Close(); merr != nil && err == nil {
				err = fmt.Errorf("close model: %w", merr)
			}
		}
		if n := s.queue.Len(); n > 0 {
			s.logger.Warn(context.Background(), "Stopped with %d file(s) still queued", n)
		}
	})
	return err
}

// Err reports a watcher that failed after Start.
func (s *Service) Err() <-chan error {
	return s.errs
}

// Pending returns the number of queued files not yet picked up.
func (s *Service) Pending() int {
	return s.queue.Len()
}

// work is the single consumer of the arrival queue.
func (s *Service) work(ctx context.Context) {
	defer s.wg.Done()
	s.logger.Info(ctx, "Worker started (poll every %s)", s.cfg.Worker.PollTimeout)

	for s.running.Load() && ctx.Err() == nil {
		path, ok := s.queue.Pop(ctx, s.cfg.Worker.PollTimeout)
		if !ok {
			continue
		}
		if s.metrics != nil {
			s.metrics.SetQueueDepth(s.queue.Len())
		}
		s.process(ctx, path)
	}

	s.logger.Info(context.Background(), "Worker stopped")
}

// process runs one file to completion. Shutdown does not reach the pipeline
// stages; only the peer wait observes it through stoppableGateway.
func (s *Service) process(ctx context.Context, path string) {
	ctx = logger.WithFile(context.WithoutCancel(ctx), filepath.Base(path))
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(ctx, "Panic while processing %s: %v", path, r)
			if s.metrics != nil {
				s.metrics.RecordFailure("panic")
			}
		}
	}()

	if err := s.proc.Process(ctx, path); err != nil {
		s.logger.Error(ctx, "Processing failed after %s: %v", time.Since(started).Round(time.Millisecond), err)
	}
}

// enqueue is the watcher's hand-off; it never fails.
func (s *Service) enqueue(ctx context.Context, path string) error {
	s.queue.Push(path)
	depth := s.queue.Len()
	if s.metrics != nil {
		s.metrics.RecordQueued(depth)
	}
	s.logger.Info(ctx, "Queued: %s (%d pending)", filepath.Base(path), depth)
	return nil
}

func (s *Service) ignored(string) {
	if s.metrics != nil {
		s.metrics.RecordIgnored()
	}
}

// ensureDirectories creates required directories if they don't exist
func ensureDirectories(dirs ...string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
