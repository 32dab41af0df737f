package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/nguyentantai21042004/voxdrop/internal/archive"
	"github.com/nguyentantai21042004/voxdrop/internal/config"
	"github.com/nguyentantai21042004/voxdrop/internal/delivery"
	"github.com/nguyentantai21042004/voxdrop/internal/logger"
	"github.com/nguyentantai21042004/voxdrop/internal/metrics"
	"github.com/nguyentantai21042004/voxdrop/internal/natsserver"
	"github.com/nguyentantai21042004/voxdrop/internal/recognizer"
	"github.com/nguyentantai21042004/voxdrop/internal/service"
	"github.com/nguyentantai21042004/voxdrop/internal/telemetry"
)

var version = "0.1.0-dev"

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath  string
		modelPath   string
		inputDir    string
		outputDir   string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "voxdrop.yaml", "Path to configuration file (optional)")
	flag.StringVar(&modelPath, "m", "", "Recognition model path (overrides paths.model)")
	flag.StringVar(&inputDir, "w", "", "Directory to watch (overrides paths.input)")
	flag.StringVar(&outputDir, "o", "", "Directory for temporary files (overrides paths.output)")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version)
		return 0
	}

	// A missing file only matters when the user named one explicitly.
	explicit := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})

	cfg, err := config.Load(configPath, !explicit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if modelPath != "" {
		cfg.Paths.Model = modelPath
	}
	if inputDir != "" {
		cfg.Paths.Input = inputDir
	}
	if outputDir != "" {
		cfg.Paths.Output = outputDir
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		return 1
	}

	out, closeLog, err := logger.Open(cfg.Logging.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log output: %v\n", err)
		return 1
	}
	defer closeLog()
	log := logger.NewWithOptions(cfg.Logging.Level, cfg.Logging.Format, out)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info(ctx, "voxdrop %s (%s/%s)", version, runtime.GOOS, runtime.GOARCH)

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Tracing, version, log)
	if err != nil {
		log.Error(ctx, "Failed to set up tracing: %v", err)
		return 1
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn(sctx, "Tracing shutdown: %v", err)
		}
	}()

	var opts []service.Option

	var srv *metrics.Server
	if cfg.Metrics.Enabled {
		m := metrics.New()
		srv = metrics.NewServer(cfg.Metrics.Address, m, log)
		if err := srv.Start(ctx); err != nil {
			log.Error(ctx, "Failed to start metrics server: %v", err)
			return 1
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				log.Warn(sctx, "Metrics server shutdown: %v", err)
			}
		}()
		opts = append(opts, service.WithMetrics(m))
	}

	if cfg.Archive.Enabled {
		w, err := archive.New(cfg.Paths.Output, cfg.Archive.Format, log)
		if err != nil {
			log.Error(ctx, "Failed to create transcript archive: %v", err)
			return 1
		}
		opts = append(opts, service.WithArchive(w))
	}

	var natsURL string
	if cfg.Delivery.Transport == "nats" {
		ns, err := natsserver.Start(ctx, cfg.Delivery.NATS, log)
		if err != nil {
			log.Error(ctx, "Failed to start embedded NATS: %v", err)
			return 1
		}
		defer ns.Shutdown(context.Background())
		natsURL = ns.ClientURL()
	}

	gw, err := delivery.New(cfg.Delivery, natsURL, log)
	if err != nil {
		log.Error(ctx, "Failed to create delivery gateway: %v", err)
		return 1
	}
	defer gw.Close()

	svc := service.New(cfg, gw, log, opts...)
	if err := svc.Start(ctx); err != nil {
		switch {
		case errors.Is(err, recognizer.ErrModelNotFound):
			log.Error(ctx, "Model not found at %s. Download a model and pass it with -m.", cfg.Paths.Model)
		case errors.Is(err, recognizer.ErrEngineUnavailable):
			log.Error(ctx, "Recognition engine unreachable: %v", err)
		default:
			log.Error(ctx, "Failed to start: %v", err)
		}
		return 1
	}
	if srv != nil {
		srv.SetReady(true)
	}

	log.Info(ctx, "Watching %s (temp files in %s, delivery over %s)", cfg.Paths.Input, cfg.Paths.Output, cfg.Delivery.Transport)
	log.Info(ctx, "Press Ctrl+C to stop")

	code := 0
	select {
	case <-ctx.Done():
		log.Info(context.Background(), "Shutdown signal received")
	case err := <-svc.Err():
		log.Error(context.Background(), "Watcher error: %v", err)
		code = 1
	}

	if srv != nil {
		srv.SetReady(false)
	}
	if err := svc.Stop(); err != nil {
		log.Warn(context.Background(), "Stop: %v", err)
	}
	log.Info(context.Background(), "voxdrop stopped")
	return code
}
