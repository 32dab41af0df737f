package processor

import (
	"context"
	"errors"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/nguyentantai21042004/voxdrop/internal/logger"
	"github.com/nguyentantai21042004/voxdrop/internal/recognizer"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Process orchestrates the pipeline for one file. Any stage failure stops the
// file; nothing is delivered unless cleanup succeeded.
func (p *implProcessor) Process(ctx context.Context, audioPath string) (err error) {
	startTime := time.Now()
	name := filepath.Base(audioPath)
	ctx = logger.WithFile(ctx, name)

	ctx, span := p.tracer.Start(ctx, "voxdrop.process", trace.WithAttributes(
		attribute.String("voxdrop.file", name),
		attribute.String("voxdrop.job_id", uuid.NewString()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	p.logger.Info(ctx, "Processing: %s", audioPath)

	var wavPath string
	if err := p.stage(ctx, StageNormalize, audioPath, func(ctx context.Context) (err error) {
		wavPath, err = p.normalize(ctx, audioPath)
		return err
	}); err != nil {
		return err
	}

	var wf *waveform
	if err := p.stage(ctx, StageValidate, audioPath, func(ctx context.Context) (err error) {
		wf, err = openWaveform(wavPath)
		return err
	}); err != nil {
		p.discardTemp(ctx, audioPath, wavPath)
		return err
	}

	var fragments []recognizer.Fragment
	err = p.stage(ctx, StageRecognize, audioPath, func(ctx context.Context) (err error) {
		fragments, err = p.recognize(ctx, wf)
		return err
	})
	if closeErr := wf.Close(); closeErr != nil {
		p.logger.Warn(ctx, "Failed to close waveform: %v", closeErr)
	}
	if err != nil {
		p.discardTemp(ctx, audioPath, wavPath)
		return err
	}

	text := Assemble(fragments, p.cfg.Recognizer.MinChars)
	chars := utf8.RuneCountInString(text)
	p.metrics.RecordFragments(len(fragments))
	p.metrics.RecordTranscript(chars)
	span.SetAttributes(
		attribute.Int("voxdrop.fragments", len(fragments)),
		attribute.Int("voxdrop.transcript_chars", chars),
	)
	if text == "" {
		p.logger.Warn(ctx, "No fragment reached %d characters, delivering empty transcript", p.cfg.Recognizer.MinChars)
	}

	if err := p.stage(ctx, StageCleanup, audioPath, func(ctx context.Context) error {
		return p.cleanup(ctx, audioPath, wavPath)
	}); err != nil {
		return err
	}

	if p.archive != nil {
		if out, err := p.archive.Write(ctx, audioPath, text); err != nil {
			p.logger.Warn(ctx, "Failed to archive transcript: %v", err)
		} else {
			p.logger.Info(ctx, "Transcript archived: %s", out)
		}
	}

	p.logger.Info(ctx, "Waiting for a peer to collect the transcript (%d chars)", chars)
	err = p.stage(ctx, StageDeliver, audioPath, func(ctx context.Context) error {
		return p.gateway.Deliver(ctx, text)
	})
	p.metrics.RecordDelivery(err == nil)
	if err != nil {
		return err
	}

	p.metrics.RecordSuccess()
	p.logger.Info(ctx, "Completed in %s", time.Since(startTime).Round(time.Millisecond))
	return nil
}

// stage runs fn under its own span and timer, and wraps a failure in a
// *StageError.
func (p *implProcessor) stage(ctx context.Context, stage, audioPath string, fn func(ctx context.Context) error) error {
	ctx, span := p.tracer.Start(ctx, "voxdrop."+stage)
	defer span.End()

	started := time.Now()
	err := fn(ctx)
	p.metrics.ObserveStage(stage, time.Since(started).Seconds())
	if err == nil {
		return nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	p.metrics.RecordFailure(stage)
	p.logger.Error(ctx, "Stage %s failed: %v", stage, err)

	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: stage, File: filepath.Base(audioPath), Err: err}
}
