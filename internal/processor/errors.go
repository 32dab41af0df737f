package processor

import (
	"errors"
	"fmt"
)

// Pipeline stages, in execution order
const (
	StageNormalize = "normalize"
	StageValidate  = "validate"
	StageRecognize = "recognize"
	StageCleanup   = "cleanup"
	StageDeliver   = "deliver"
)

// ErrInvalidFormat is returned when the normalized waveform is not mono 16-bit PCM
var ErrInvalidFormat = errors.New("invalid waveform format")

// StageError ties a pipeline failure to its stage and file
type StageError struct {
	Stage string
	File  string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.File, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
