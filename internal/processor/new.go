package processor

import (
	"github.com/nguyentantai21042004/voxdrop/internal/archive"
	"github.com/nguyentantai21042004/voxdrop/internal/config"
	"github.com/nguyentantai21042004/voxdrop/internal/delivery"
	"github.com/nguyentantai21042004/voxdrop/internal/logger"
	"github.com/nguyentantai21042004/voxdrop/internal/recognizer"
	"github.com/nguyentantai21042004/voxdrop/pkg/executor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type implProcessor struct {
	cfg      *config.Config
	executor executor.Executor
	model    recognizer.Model
	gateway  delivery.Gateway
	archive  archive.Writer
	metrics  Recorder
	tracer   trace.Tracer
	logger   logger.Logger
}

// Option customizes a Processor
type Option func(*implProcessor)

// WithArchive stores every assembled transcript through w before delivery
func WithArchive(w archive.Writer) Option {
	return func(p *implProcessor) { p.archive = w }
}

// WithRecorder reports stage timings and outcomes to r
func WithRecorder(r Recorder) Option {
	return func(p *implProcessor) {
		if r != nil {
			p.metrics = r
		}
	}
}

// New creates a new Processor instance
func New(cfg *config.Config, exec executor.Executor, model recognizer.Model, gw delivery.Gateway, log logger.Logger, opts ...Option) Processor {
	p := &implProcessor{
		cfg:      cfg,
		executor: exec,
		model:    model,
		gateway:  gw,
		metrics:  nopRecorder{},
		tracer:   otel.Tracer("github.com/nguyentantai21042004/voxdrop/internal/processor"),
		logger:   log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}
