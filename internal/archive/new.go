package archive

import (
	"fmt"

	"github.com/nguyentantai21042004/voxdrop/internal/logger"
)

type implWriter struct {
	outputDir string
	format    string
	logger    logger.Logger
	now       func() string
}

// New creates a Writer producing .txt or .docx files in outputDir.
func New(outputDir, format string, log logger.Logger) (Writer, error) {
	switch format {
	case "txt", "docx":
	default:
		return nil, fmt.Errorf("archive: unknown format %q (supported: txt, docx)", format)
	}
	return &implWriter{
		outputDir: outputDir,
		format:    format,
		logger:    log,
		now:       timestamp,
	}, nil
}
