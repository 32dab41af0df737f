package processor

import (
	"context"
	"fmt"

	"github.com/nguyentantai21042004/voxdrop/internal/recognizer"
)

// recognize streams the waveform through a fresh session and collects every
// non-empty utterance, the final flush included.
func (p *implProcessor) recognize(ctx context.Context, wf *waveform) ([]recognizer.Fragment, error) {
	sess, err := p.model.NewSession(ctx, wf.sampleRate)
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			p.logger.Warn(ctx, "Failed to close recognizer session: %v", err)
		}
	}()

	var fragments []recognizer.Fragment
	chunks := 0
	err = wf.chunks(p.cfg.Recognizer.FramesPerChunk, func(pcm []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunks++
		frag, done, err := sess.AcceptWaveform(ctx, pcm)
		if err != nil {
			return fmt.Errorf("accept waveform (chunk %d): %w", chunks, err)
		}
		if done && frag.Text != "" {
			p.logger.Debug(ctx, "Utterance %d: %q (conf %.2f)", len(fragments)+1, frag.Text, frag.Confidence)
			fragments = append(fragments, frag)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	final, err := sess.FinalResult(ctx)
	if err != nil {
		return nil, fmt.Errorf("final result: %w", err)
	}
	if final.Text != "" {
		fragments = append(fragments, final)
	}

	p.logger.Info(ctx, "Recognized %d chunk(s), %d fragment(s) with %s", chunks, len(fragments), p.model.Name())
	return fragments, nil
}
