package archive

import "context"

// Writer persists an assembled transcript next to the pipeline output.
type Writer interface {
	// Write stores text for the given source file and returns the path written.
	Write(ctx context.Context, sourcePath, text string) (string, error)
}
