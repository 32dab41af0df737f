// Package recognizer defines the streaming speech recognition contract used by
// the pipeline and its engines.
//
// A Model is loaded once at startup and is read-only afterwards. Each file
// gets its own Session: audio is offered chunk by chunk through
// AcceptWaveform, which reports a Fragment whenever the engine closes an
// utterance, and FinalResult flushes whatever utterance is still open.
// Engines of this family only emit the last utterance on the explicit flush.
package recognizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/nguyentantai21042004/voxdrop/internal/config"
)

// ErrModelNotFound is returned by Load when the model path does not exist.
var ErrModelNotFound = errors.New("recognition model not found")

// ErrEngineUnavailable is returned by Load when the engine cannot be reached.
var ErrEngineUnavailable = errors.New("recognition engine unavailable")

// Word is one recognized word with its timing and confidence.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Conf  float64 `json:"conf"`
}

// Fragment is one completed utterance.
type Fragment struct {
	Text       string
	Confidence float64
	Words      []Word
}

// Session is a per-file recognizer. It is not safe for concurrent use.
type Session interface {
	// AcceptWaveform feeds raw little-endian PCM. The boolean is true when the
	// chunk completed an utterance and the Fragment holds it.
	AcceptWaveform(ctx context.Context, pcm []byte) (Fragment, bool, error)
	// FinalResult flushes the trailing utterance. Call it once, after the
	// last chunk.
	FinalResult(ctx context.Context) (Fragment, error)
	Close() error
}

// Model creates independent sessions from one loaded model.
type Model interface {
	NewSession(ctx context.Context, sampleRate int) (Session, error)
	Name() string
	Close() error
}

// Load checks the model path and builds the configured engine. A vosk
// engine must answer a websocket handshake.
func Load(modelPath string, cfg config.RecognizerConfig) (Model, error) {
	if _, err := os.Stat(modelPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelPath)
		}
		return nil, fmt.Errorf("stat model %s: %w", modelPath, err)
	}

	switch cfg.Engine {
	case "vosk":
		m := newVoskModel(modelPath, cfg.Endpoint, cfg.DialTimeout)
		timeout := cfg.DialTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := m.ping(ctx); err != nil {
			return nil, err
		}
		return m, nil
	case "mock":
		return NewMockModel(modelPath, cfg.MockEvery), nil
	default:
		return nil, fmt.Errorf("recognizer: unknown engine %q (supported: vosk, mock)", cfg.Engine)
	}
}

func meanConfidence(words []Word) float64 {
	if len(words) == 0 {
		return 0
	}
	var sum float64
	for _, w := range words {
		sum += w.Conf
	}
	return sum / float64(len(words))
}

func deadline(ctx context.Context) time.Time {
	if d, ok := ctx.Deadline(); ok {
		return d
	}
	return time.Time{}
}
