package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Model:  "model",
			Input:  "./input",
			Output: "./output",
		},
		Watcher: WatcherConfig{
			SettleDelay: 500 * time.Millisecond,
		},
		Worker: WorkerConfig{
			PollTimeout: time.Second,
		},
		FFmpeg: FFmpegConfig{
			Command:    "ffmpeg",
			SampleRate: 16000,
			Channels:   1,
		},
		Recognizer: RecognizerConfig{
			Engine:         "vosk",
			Endpoint:       "ws://localhost:2700",
			DialTimeout:    10 * time.Second,
			FramesPerChunk: 4000,
			MinChars:       4,
			MockEvery:      4,
		},
		Delivery: DeliveryConfig{
			Transport: "zmq",
			Endpoint:  "tcp://*:5555",
			NATS: NATSConfig{
				URL:     "nats://localhost:4222",
				Subject: "voxdrop.transcripts",
				Host:    "127.0.0.1",
				Port:    4222,
			},
		},
		Archive: ArchiveConfig{
			Format: "txt",
		},
		Metrics: MetricsConfig{
			Address: "127.0.0.1:9464",
		},
		Tracing: TracingConfig{
			Exporter:     "stdout",
			OTLPInsecure: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Load reads a YAML config file on top of Default. A missing file is not
// an error when optional is set; the defaults are returned instead.
func Load(path string, optional bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	return cfg, nil
}
