package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Write names the output after the source file's base name. An existing
// transcript of the same name is replaced.
func (w *implWriter) Write(ctx context.Context, sourcePath, text string) (string, error) {
	base := filepath.Base(sourcePath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	outPath := filepath.Join(w.outputDir, name+"."+w.format)

	var err error
	switch w.format {
	case "docx":
		err = transcriptToDocx(name, w.now(), text, outPath)
	default:
		err = writeText(outPath, text)
	}
	if err != nil {
		return "", fmt.Errorf("archive %s: %w", base, err)
	}

	w.logger.Info(ctx, "Transcript archived: %s", outPath)
	return outPath, nil
}

func writeText(path, text string) error {
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return os.WriteFile(path, []byte(text), 0644)
}

func timestamp() string {
	return time.Now().Format("2006-01-02 15:04")
}
