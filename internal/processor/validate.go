package processor

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// waveform is an open, validated WAV file positioned at its PCM data.
type waveform struct {
	file       *os.File
	decoder    *wav.Decoder
	sampleRate int
}

// openWaveform opens path and checks it is mono 16-bit PCM.
func openWaveform(path string) (*waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open waveform: %w", err)
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("%w: %s is not a RIFF/WAVE file", ErrInvalidFormat, filepath.Base(path))
	}
	if dec.NumChans != 1 || dec.BitDepth != 16 || dec.WavAudioFormat != 1 {
		f.Close()
		return nil, fmt.Errorf("%w: %s has %d channel(s), %d-bit, format %d; want mono 16-bit PCM",
			ErrInvalidFormat, filepath.Base(path), dec.NumChans, dec.BitDepth, dec.WavAudioFormat)
	}

	return &waveform{
		file:       f,
		decoder:    dec,
		sampleRate: int(dec.SampleRate),
	}, nil
}

// chunks calls fn with consecutive blocks of at most frames samples, encoded
// as little-endian 16-bit PCM. The last block may be shorter.
func (w *waveform) chunks(frames int, fn func(pcm []byte) error) error {
	buf := &audio.IntBuffer{
		Data:   make([]int, frames),
		Format: &audio.Format{NumChannels: 1, SampleRate: w.sampleRate},
	}
	pcm := make([]byte, frames*2)

	for {
		n, err := w.decoder.PCMBuffer(buf)
		if err != nil {
			return fmt.Errorf("read pcm: %w", err)
		}
		if n == 0 {
			return nil
		}
		for i, s := range buf.Data[:n] {
			binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(s)))
		}
		if err := fn(pcm[:n*2]); err != nil {
			return err
		}
	}
}

func (w *waveform) Close() error {
	return w.file.Close()
}
