package config

import (
	"fmt"
	"time"
)

type Config struct {
	Paths      PathsConfig      `yaml:"paths"`
	Watcher    WatcherConfig    `yaml:"watcher"`
	Worker     WorkerConfig     `yaml:"worker"`
	FFmpeg     FFmpegConfig     `yaml:"ffmpeg"`
	Recognizer RecognizerConfig `yaml:"recognizer"`
	Delivery   DeliveryConfig   `yaml:"delivery"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Tracing    TracingConfig    `yaml:"tracing"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type PathsConfig struct {
	Model  string `yaml:"model"`
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
}

type WatcherConfig struct {
	SettleDelay      time.Duration `yaml:"settle_delay"`
	StabilityChecks  int           `yaml:"stability_checks"`
	StabilityTimeout time.Duration `yaml:"stability_timeout"`
}

type WorkerConfig struct {
	PollTimeout time.Duration `yaml:"poll_timeout"`
}

type FFmpegConfig struct {
	Command    string `yaml:"command"`
	SampleRate int    `yaml:"sample_rate"`
	Channels   int    `yaml:"channels"`
}

type RecognizerConfig struct {
	Engine         string        `yaml:"engine"` // vosk, mock
	Endpoint       string        `yaml:"endpoint"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	FramesPerChunk int           `yaml:"frames_per_chunk"`
	MinChars       int           `yaml:"min_chars"`
	MockEvery      int           `yaml:"mock_utterance_every"`
}

type DeliveryConfig struct {
	Transport string     `yaml:"transport"` // zmq, nats
	Endpoint  string     `yaml:"endpoint"`
	NATS      NATSConfig `yaml:"nats"`
}

type NATSConfig struct {
	URL      string `yaml:"url"`
	Subject  string `yaml:"subject"`
	Embedded bool   `yaml:"embedded"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
}

type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Format  string `yaml:"format"` // txt, docx
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

type TracingConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Exporter     string `yaml:"exporter"` // stdout, otlp
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

func (c *Config) Validate() error {
	if c.Paths.Model == "" {
		return fmt.Errorf("paths.model is required")
	}
	if c.Paths.Input == "" {
		return fmt.Errorf("paths.input is required")
	}
	if c.Paths.Output == "" {
		return fmt.Errorf("paths.output is required")
	}

	switch c.Recognizer.Engine {
	case "vosk":
		if c.Recognizer.Endpoint == "" {
			return fmt.Errorf("recognizer.endpoint is required for the vosk engine")
		}
	case "mock":
	default:
		return fmt.Errorf("recognizer.engine must be \"vosk\" or \"mock\", got %q", c.Recognizer.Engine)
	}

	switch c.Delivery.Transport {
	case "zmq":
		if c.Delivery.Endpoint == "" {
			return fmt.Errorf("delivery.endpoint is required for the zmq transport")
		}
	case "nats":
		if c.Delivery.NATS.Subject == "" {
			return fmt.Errorf("delivery.nats.subject is required")
		}
		if !c.Delivery.NATS.Embedded && c.Delivery.NATS.URL == "" {
			return fmt.Errorf("delivery.nats.url is required unless delivery.nats.embedded is set")
		}
	default:
		return fmt.Errorf("delivery.transport must be \"zmq\" or \"nats\", got %q", c.Delivery.Transport)
	}

	if c.Archive.Enabled {
		switch c.Archive.Format {
		case "txt", "docx":
		default:
			return fmt.Errorf("archive.format must be \"txt\" or \"docx\", got %q", c.Archive.Format)
		}
	}

	if c.Tracing.Enabled {
		switch c.Tracing.Exporter {
		case "stdout":
		case "otlp":
			if c.Tracing.OTLPEndpoint == "" {
				return fmt.Errorf("tracing.otlp_endpoint is required for the otlp exporter")
			}
		default:
			return fmt.Errorf("tracing.exporter must be \"stdout\" or \"otlp\", got %q", c.Tracing.Exporter)
		}
	}

	if c.Watcher.SettleDelay < 0 {
		return fmt.Errorf("watcher.settle_delay must not be negative")
	}
	if c.Worker.PollTimeout <= 0 {
		c.Worker.PollTimeout = time.Second
	}
	if c.FFmpeg.Command == "" {
		c.FFmpeg.Command = "ffmpeg"
	}
	if c.FFmpeg.SampleRate == 0 {
		c.FFmpeg.SampleRate = 16000
	}
	if c.FFmpeg.Channels == 0 {
		c.FFmpeg.Channels = 1
	}
	if c.Recognizer.FramesPerChunk <= 0 {
		c.Recognizer.FramesPerChunk = 4000
	}
	if c.Recognizer.MinChars <= 0 {
		c.Recognizer.MinChars = 4
	}
	if c.Recognizer.DialTimeout <= 0 {
		c.Recognizer.DialTimeout = 10 * time.Second
	}
	if c.Watcher.StabilityChecks > 0 && c.Watcher.StabilityTimeout <= 0 {
		c.Watcher.StabilityTimeout = 30 * time.Second
	}
	if c.Metrics.Enabled && c.Metrics.Address == "" {
		c.Metrics.Address = "127.0.0.1:9464"
	}

	return nil
}
