package processor

import (
	"context"
	"fmt"
	"os"
)

// cleanup removes the normalized file (when it is a temporary) and then the
// original upload.
func (p *implProcessor) cleanup(ctx context.Context, audioPath, wavPath string) error {
	if wavPath != audioPath {
		if err := os.Remove(wavPath); err != nil {
			return fmt.Errorf("remove normalized file: %w", err)
		}
		p.logger.Debug(ctx, "Removed temp file: %s", wavPath)
	}

	if err := os.Remove(audioPath); err != nil {
		return fmt.Errorf("remove original: %w", err)
	}
	p.logger.Debug(ctx, "Removed original: %s", audioPath)
	return nil
}

// discardTemp removes a temporary file after a failed stage, logs warning if fails
func (p *implProcessor) discardTemp(ctx context.Context, audioPath, wavPath string) {
	if wavPath == "" || wavPath == audioPath {
		return
	}
	if err := os.Remove(wavPath); err != nil {
		p.logger.Warn(ctx, "Failed to cleanup temp file %s: %v", wavPath, err)
	} else {
		p.logger.Debug(ctx, "Cleaned up temp file: %s", wavPath)
	}
}
