package executor

import "context"

// Executor defines the interface for executing external commands
type Executor interface {
	// Execute runs name with args and returns stdout. On failure the error
	// carries the trimmed stderr.
	Execute(ctx context.Context, name string, args ...string) (string, error)
}
