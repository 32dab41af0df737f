package service

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/nguyentantai21042004/voxdrop/internal/archive"
	"github.com/nguyentantai21042004/voxdrop/internal/config"
	"github.com/nguyentantai21042004/voxdrop/internal/delivery"
	"github.com/nguyentantai21042004/voxdrop/internal/logger"
	"github.com/nguyentantai21042004/voxdrop/internal/metrics"
	"github.com/nguyentantai21042004/voxdrop/internal/processor"
	"github.com/nguyentantai21042004/voxdrop/internal/queue"
	"github.com/nguyentantai21042004/voxdrop/internal/recognizer"
	"github.com/nguyentantai21042004/voxdrop/internal/watcher"
	"github.com/nguyentantai21042004/voxdrop/pkg/executor"
)

// ErrAlreadyStarted is returned by Start on a service that was started before.
var ErrAlreadyStarted = errors.New("service already started")

// ModelLoader loads the recognition model named by path.
type ModelLoader func(path string, cfg config.RecognizerConfig) (recognizer.Model, error)

// WatcherFactory creates the directory watcher feeding handler.
type WatcherFactory func(dir string, handler watcher.EventHandler, log logger.Logger, opts watcher.Options) (watcher.Watcher, error)

// Service owns the arrival queue, the loaded model, the single worker and the
// directory watcher.
type Service struct {
	cfg     *config.Config
	gateway delivery.Gateway
	logger  logger.Logger

	executor   executor.Executor
	metrics    *metrics.Metrics
	archive    archive.Writer
	loadModel  ModelLoader
	newWatcher WatcherFactory

	queue   *queue.Queue
	model   recognizer.Model
	proc    processor.Processor
	watcher watcher.Watcher
	errs    chan error

	running  atomic.Bool
	started  atomic.Bool
	cancel   func()
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// Option customizes a Service
type Option func(*Service)

// WithExecutor replaces the command executor used for ffmpeg.
func WithExecutor(e executor.Executor) Option {
	return func(s *Service) { s.executor = e }
}

// WithMetrics reports queue and pipeline activity to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithArchive stores every transcript through w before delivery.
func WithArchive(w archive.Writer) Option {
	return func(s *Service) { s.archive = w }
}

// WithModelLoader replaces recognizer.Load.
func WithModelLoader(l ModelLoader) Option {
	return func(s *Service) { s.loadModel = l }
}

// WithWatcherFactory replaces watcher.New.
func WithWatcherFactory(f WatcherFactory) Option {
	return func(s *Service) { s.newWatcher = f }
}

// New creates a stopped Service. cfg must already be validated.
func New(cfg *config.Config, gw delivery.Gateway, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		cfg:        cfg,
		gateway:    gw,
		logger:     log,
		executor:   executor.New(),
		loadModel:  recognizer.Load,
		newWatcher: watcher.New,
		queue:      queue.New(),
		errs:       make(chan error, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
