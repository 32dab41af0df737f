package processor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/nguyentantai21042004/voxdrop/internal/config"
	"github.com/nguyentantai21042004/voxdrop/internal/logger"
	"github.com/nguyentantai21042004/voxdrop/internal/recognizer"
)

// writeWav writes a silent WAV of the given frame count.
func writeWav(t *testing.T, path string, frames, channels, bitDepth int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, 16000, bitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: 16000},
		Data:           make([]int, frames*channels),
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
}

type fakeExecutor struct {
	t        *testing.T
	fail     error
	frames   int
	channels int
	after    func(input string)

	calls [][]string
}

func (f *fakeExecutor) Execute(_ context.Context, name string, args ...string) (string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.fail != nil {
		return "", f.fail
	}
	out := args[len(args)-1]
	channels := f.channels
	if channels == 0 {
		channels = 1
	}
	writeWav(f.t, out, f.frames, channels, 16)
	if f.after != nil {
		f.after(args[indexOf(args, "-i")+1])
	}
	return "", nil
}

func indexOf(args []string, v string) int {
	for i, a := range args {
		if a == v {
			return i
		}
	}
	return -1
}

// fakeModel emits one scripted fragment per chunk until the script runs out.
type fakeModel struct {
	script   []string
	final    string
	failAt   int
	mu       sync.Mutex
	chunks   []int
	rate     int
	sessions int
}

func (m *fakeModel) Name() string { return "fake" }
func (m *fakeModel) Close() error { return nil }

func (m *fakeModel) NewSession(_ context.Context, sampleRate int) (recognizer.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rate = sampleRate
	m.sessions++
	return &fakeSession{m: m}, nil
}

type fakeSession struct {
	m *fakeModel
	n int
}

func (s *fakeSession) AcceptWaveform(_ context.Context, pcm []byte) (recognizer.Fragment, bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.n++
	s.m.chunks = append(s.m.chunks, len(pcm))
	if s.m.failAt > 0 && s.n == s.m.failAt {
		return recognizer.Fragment{}, false, errors.New("engine crashed")
	}
	if s.n <= len(s.m.script) {
		return recognizer.Fragment{Text: s.m.script[s.n-1]}, true, nil
	}
	return recognizer.Fragment{}, false, nil
}

func (s *fakeSession) FinalResult(context.Context) (recognizer.Fragment, error) {
	return recognizer.Fragment{Text: s.m.final}, nil
}

func (s *fakeSession) Close() error { return nil }

type fakeGateway struct {
	fail      error
	delivered []string
}

func (g *fakeGateway) Deliver(_ context.Context, text string) error {
	if g.fail != nil {
		return g.fail
	}
	g.delivered = append(g.delivered, text)
	return nil
}

func (g *fakeGateway) Close() error { return nil }

type fakeArchive struct {
	texts []string
}

func (a *fakeArchive) Write(_ context.Context, sourcePath, text string) (string, error) {
	a.texts = append(a.texts, text)
	return sourcePath + ".txt", nil
}

type countingRecorder struct {
	nopRecorder
	failures  map[string]int
	successes int
	delivered []bool
}

func (r *countingRecorder) RecordFailure(stage string) { r.failures[stage]++ }
func (r *countingRecorder) RecordSuccess()             { r.successes++ }
func (r *countingRecorder) RecordDelivery(ok bool)     { r.delivered = append(r.delivered, ok) }

type fixture struct {
	cfg      *config.Config
	in       string
	exec     *fakeExecutor
	model    *fakeModel
	gateway  *fakeGateway
	recorder *countingRecorder
	proc     Processor
}

func newFixture(t *testing.T, model *fakeModel, opts ...Option) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.Input = t.TempDir()
	cfg.Paths.Output = t.TempDir()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	f := &fixture{
		cfg:      cfg,
		in:       cfg.Paths.Input,
		exec:     &fakeExecutor{t: t, frames: 3 * cfg.Recognizer.FramesPerChunk},
		model:    model,
		gateway:  &fakeGateway{},
		recorder: &countingRecorder{failures: map[string]int{}},
	}
	opts = append([]Option{WithRecorder(f.recorder)}, opts...)
	f.proc = New(cfg, f.exec, model, f.gateway, logger.New("error"), opts...)
	return f
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func outputEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func stageOf(t *testing.T, err error) string {
	t.Helper()
	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("error %v is not a *StageError", err)
	}
	return se.Stage
}

func TestProcessWavDeliversFilteredTranscript(t *testing.T) {
	f := newFixture(t, &fakeModel{script: []string{"hi", "a", "test case"}})
	src := filepath.Join(f.in, "clip.wav")
	writeWav(t, src, 3*f.cfg.Recognizer.FramesPerChunk, 1, 16)

	if err := f.proc.Process(context.Background(), src); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if len(f.gateway.delivered) != 1 || f.gateway.delivered[0] != "test case" {
		t.Errorf("delivered = %q, want [\"test case\"]", f.gateway.delivered)
	}
	if exists(src) {
		t.Error("original still exists after success")
	}
	if len(f.exec.calls) != 0 {
		t.Errorf("ffmpeg invoked %d time(s) for a WAV input", len(f.exec.calls))
	}
	if f.model.rate != 16000 {
		t.Errorf("session sample rate = %d, want 16000", f.model.rate)
	}
	if len(f.model.chunks) != 3 {
		t.Fatalf("chunks = %v, want 3", f.model.chunks)
	}
	for _, n := range f.model.chunks {
		if n != f.cfg.Recognizer.FramesPerChunk*2 {
			t.Errorf("chunk size = %d bytes, want %d", n, f.cfg.Recognizer.FramesPerChunk*2)
		}
	}
	if f.recorder.successes != 1 {
		t.Errorf("successes = %d, want 1", f.recorder.successes)
	}
}

func TestProcessNormalizesAndRemovesTemp(t *testing.T) {
	f := newFixture(t, &fakeModel{script: []string{"hello world"}, final: "tail end"})
	src := filepath.Join(f.in, "clip.mp3")
	if err := os.WriteFile(src, []byte("ID3 not really mp3"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := f.proc.Process(context.Background(), src); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if len(f.gateway.delivered) != 1 || f.gateway.delivered[0] != "hello world tail end" {
		t.Errorf("delivered = %q, want [\"hello world tail end\"]", f.gateway.delivered)
	}
	if exists(src) {
		t.Error("original still exists after success")
	}
	if left := outputEntries(t, f.cfg.Paths.Output); len(left) != 0 {
		t.Errorf("output dir not empty: %v", left)
	}

	if len(f.exec.calls) != 1 {
		t.Fatalf("ffmpeg calls = %d, want 1", len(f.exec.calls))
	}
	call := f.exec.calls[0]
	if call[0] != "ffmpeg" {
		t.Errorf("binary = %q, want ffmpeg", call[0])
	}
	for flag, want := range map[string]string{"-i": src, "-acodec": "pcm_s16le", "-ac": "1", "-ar": "16000"} {
		i := indexOf(call, flag)
		if i < 0 || call[i+1] != want {
			t.Errorf("%s = %v, want %q", flag, call, want)
		}
	}
	out := call[len(call)-1]
	if filepath.Dir(out) != f.cfg.Paths.Output || filepath.Ext(out) != ".wav" {
		t.Errorf("temp path = %q, want a .wav in %s", out, f.cfg.Paths.Output)
	}
}

func TestProcessEmptyTranscriptStillDelivered(t *testing.T) {
	f := newFixture(t, &fakeModel{script: []string{"uh", "hm", "ok"}})
	src := filepath.Join(f.in, "quiet.wav")
	writeWav(t, src, 3*f.cfg.Recognizer.FramesPerChunk, 1, 16)

	if err := f.proc.Process(context.Background(), src); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(f.gateway.delivered) != 1 || f.gateway.delivered[0] != "" {
		t.Errorf("delivered = %q, want one empty transcript", f.gateway.delivered)
	}
}

func TestProcessFailures(t *testing.T) {
	tests := []struct {
		name         string
		file         string
		setup        func(t *testing.T, f *fixture, src string)
		wantStage    string
		wantOriginal bool
		wantInvalid  bool
	}{
		{
			name: "normalize failure keeps original",
			file: "broken.mp3",
			setup: func(t *testing.T, f *fixture, src string) {
				os.WriteFile(src, []byte("garbage"), 0644)
				f.exec.fail = errors.New("exit status 1: Invalid data found when processing input")
			},
			wantStage:    StageNormalize,
			wantOriginal: true,
		},
		{
			name: "stereo wav fails validation",
			file: "stereo.wav",
			setup: func(t *testing.T, f *fixture, src string) {
				writeWav(t, src, 8000, 2, 16)
			},
			wantStage:    StageValidate,
			wantOriginal: true,
			wantInvalid:  true,
		},
		{
			name: "stereo conversion output fails validation and temp is removed",
			file: "clip.ogg",
			setup: func(t *testing.T, f *fixture, src string) {
				os.WriteFile(src, []byte("OggS"), 0644)
				f.exec.channels = 2
			},
			wantStage:    StageValidate,
			wantOriginal: true,
			wantInvalid:  true,
		},
		{
			name: "not a wav at all",
			file: "fake.wav",
			setup: func(t *testing.T, f *fixture, src string) {
				os.WriteFile(src, []byte("definitely not RIFF data"), 0644)
			},
			wantStage:    StageValidate,
			wantOriginal: true,
			wantInvalid:  true,
		},
		{
			name: "recognizer failure keeps original and removes temp",
			file: "clip.flac",
			setup: func(t *testing.T, f *fixture, src string) {
				os.WriteFile(src, []byte("fLaC"), 0644)
				f.model.failAt = 2
			},
			wantStage:    StageRecognize,
			wantOriginal: true,
		},
		{
			name: "cleanup failure skips delivery",
			file: "vanishing.m4a",
			setup: func(t *testing.T, f *fixture, src string) {
				os.WriteFile(src, []byte("ftyp"), 0644)
				f.exec.after = func(input string) { os.Remove(input) }
			},
			wantStage:    StageCleanup,
			wantOriginal: false,
		},
		{
			name: "delivery failure after cleanup",
			file: "late.wav",
			setup: func(t *testing.T, f *fixture, src string) {
				writeWav(t, src, 4000, 1, 16)
				f.gateway.fail = errors.New("socket closed")
			},
			wantStage:    StageDeliver,
			wantOriginal: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, &fakeModel{script: []string{"some words here"}})
			src := filepath.Join(f.in, tt.file)
			tt.setup(t, f, src)

			err := f.proc.Process(context.Background(), src)
			if err == nil {
				t.Fatal("Process() error = nil, want failure")
			}
			if got := stageOf(t, err); got != tt.wantStage {
				t.Errorf("stage = %q, want %q (err %v)", got, tt.wantStage, err)
			}
			if errors.Is(err, ErrInvalidFormat) != tt.wantInvalid {
				t.Errorf("errors.Is(ErrInvalidFormat) = %v, want %v", !tt.wantInvalid, tt.wantInvalid)
			}
			if exists(src) != tt.wantOriginal {
				t.Errorf("original exists = %v, want %v", exists(src), tt.wantOriginal)
			}
			if left := outputEntries(t, f.cfg.Paths.Output); len(left) != 0 {
				t.Errorf("temp files left behind: %v", left)
			}
			if tt.wantStage != StageDeliver && len(f.gateway.delivered) != 0 {
				t.Errorf("delivered = %q, want nothing", f.gateway.delivered)
			}
			if f.recorder.failures[tt.wantStage] != 1 {
				t.Errorf("failures = %v, want one %s", f.recorder.failures, tt.wantStage)
			}
			if f.recorder.successes != 0 {
				t.Errorf("successes = %d, want 0", f.recorder.successes)
			}
		})
	}
}

func TestProcessArchivesBeforeDelivery(t *testing.T) {
	arch := &fakeArchive{}
	f := newFixture(t, &fakeModel{script: []string{"archived words"}}, WithArchive(arch))
	src := filepath.Join(f.in, "note.wav")
	writeWav(t, src, 4000, 1, 16)

	if err := f.proc.Process(context.Background(), src); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(arch.texts) != 1 || arch.texts[0] != "archived words" {
		t.Errorf("archived = %q", arch.texts)
	}
	if len(f.gateway.delivered) != 1 {
		t.Errorf("delivered = %q, want one", f.gateway.delivered)
	}
}

func TestAssemble(t *testing.T) {
	frag := func(texts ...string) []recognizer.Fragment {
		out := make([]recognizer.Fragment, len(texts))
		for i, s := range texts {
			out[i] = recognizer.Fragment{Text: s}
		}
		return out
	}

	tests := []struct {
		name      string
		fragments []recognizer.Fragment
		minChars  int
		want      string
	}{
		{"drops short fragments", frag("hi", "a", "test case"), 4, "test case"},
		{"keeps order", frag("first one", "second one"), 4, "first one second one"},
		{"boundary is inclusive", frag("abcd", "abc"), 4, "abcd"},
		{"all below threshold", frag("a", "bb", "ccc"), 4, ""},
		{"empty final flush dropped", frag("hello there", ""), 4, "hello there"},
		{"counts characters not bytes", frag("héllo", "日本語です"), 5, "héllo 日本語です"},
		{"no fragments", nil, 4, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Assemble(tt.fragments, tt.minChars); got != tt.want {
				t.Errorf("Assemble() = %q, want %q", got, tt.want)
			}
		})
	}
}
