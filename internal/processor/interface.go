package processor

import "context"

// Processor runs the per-file transcription pipeline
type Processor interface {
	// Process normalizes, validates, recognizes, cleans up and delivers one
	// file. It returns a *StageError naming the stage that failed.
	Process(ctx context.Context, audioPath string) error
}

// Recorder receives pipeline measurements; *metrics.Metrics satisfies it
type Recorder interface {
	ObserveStage(stage string, seconds float64)
	RecordFragments(n int)
	RecordTranscript(chars int)
	RecordSuccess()
	RecordFailure(stage string)
	RecordDelivery(ok bool)
}

type nopRecorder struct{}

func (nopRecorder) ObserveStage(string, float64) {}
func (nopRecorder) RecordFragments(int)          {}
func (nopRecorder) RecordTranscript(int)         {}
func (nopRecorder) RecordSuccess()               {}
func (nopRecorder) RecordFailure(string)         {}
func (nopRecorder) RecordDelivery(bool)          {}
