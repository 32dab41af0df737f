package recognizer

import (
	"context"
	"fmt"
)

type mockModel struct {
	path  string
	every int
}

// NewMockModel returns an offline engine that closes one utterance every
// `every` chunks and flushes a trailing one when chunks are left over.
// It is meant for dry runs of the watch and delivery path.
func NewMockModel(modelPath string, every int) Model {
	if every <= 0 {
		every = 4
	}
	return &mockModel{path: modelPath, every: every}
}

func (m *mockModel) Name() string {
	return fmt.Sprintf("mock(%s)", m.path)
}

func (m *mockModel) Close() error {
	return nil
}

func (m *mockModel) NewSession(_ context.Context, sampleRate int) (Session, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("recognizer: invalid sample rate %d", sampleRate)
	}
	return &mockSession{every: m.every, sampleRate: sampleRate}, nil
}

type mockSession struct {
	every      int
	sampleRate int
	pending    int
	bytes      int
	utterances int
}

func (s *mockSession) AcceptWaveform(_ context.Context, pcm []byte) (Fragment, bool, error) {
	s.pending++
	s.bytes += len(pcm)
	if s.pending < s.every {
		return Fragment{}, false, nil
	}
	return s.emit(), true, nil
}

func (s *mockSession) FinalResult(_ context.Context) (Fragment, error) {
	if s.pending == 0 {
		return Fragment{}, nil
	}
	return s.emit(), nil
}

func (s *mockSession) Close() error {
	return nil
}

func (s *mockSession) emit() Fragment {
	s.utterances++
	seconds := float64(s.bytes) / float64(s.sampleRate*2)
	s.pending = 0
	s.bytes = 0
	return Fragment{
		Text:       fmt.Sprintf("utterance %d (%.2fs)", s.utterances, seconds),
		Confidence: 1,
	}
}
