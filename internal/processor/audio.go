package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/nguyentantai21042004/voxdrop/pkg/executor"
)

// normalize converts the source into mono 16-bit PCM WAV in the output
// directory. Files that already carry a .wav extension are used as is.
func (p *implProcessor) normalize(ctx context.Context, audioPath string) (string, error) {
	if strings.EqualFold(filepath.Ext(audioPath), ".wav") {
		p.logger.Debug(ctx, "Already WAV, skipping conversion")
		return audioPath, nil
	}

	wavPath := filepath.Join(p.cfg.Paths.Output, "temp_"+uuid.NewString()+".wav")
	p.logger.Info(ctx, "Normalizing: %s -> %s", audioPath, wavPath)

	bin, lead, err := executor.SplitCommand(p.cfg.FFmpeg.Command)
	if err != nil {
		return "", fmt.Errorf("ffmpeg command: %w", err)
	}

	// -vn drops video streams from containers like mp4/mkv.
	args := append(lead,
		"-hide_banner", "-loglevel", "error",
		"-i", audioPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ac", strconv.Itoa(p.cfg.FFmpeg.Channels),
		"-ar", strconv.Itoa(p.cfg.FFmpeg.SampleRate),
		"-y",
		wavPath,
	)

	if _, err := p.executor.Execute(ctx, bin, args...); err != nil {
		// ffmpeg may leave a partial file behind
		if rmErr := os.Remove(wavPath); rmErr != nil && !os.IsNotExist(rmErr) {
			p.logger.Warn(ctx, "Failed to remove partial output %s: %v", wavPath, rmErr)
		}
		return "", fmt.Errorf("ffmpeg normalize: %w", err)
	}

	return wavPath, nil
}
