package watcher

import (
	"path/filepath"
	"strings"
)

// supportedFormats is the canonical allow-list: plain audio plus the common
// containers ffmpeg can pull an audio track from.
var supportedFormats = map[string]struct{}{
	".mp3":  {},
	".wav":  {},
	".flac": {},
	".ogg":  {},
	".m4a":  {},
	".aac":  {},
	".opus": {},
	".wma":  {},
	".mp4":  {},
	".mkv":  {},
	".mov":  {},
	".avi":  {},
	".webm": {},
}

// IsSupported reports whether path has a supported, case-insensitive extension.
// A leading dot does not start an extension, so ".mp3" has none.
func IsSupported(path string) bool {
	base := filepath.Base(path)
	if strings.LastIndex(base, ".") <= 0 {
		return false
	}
	_, ok := supportedFormats[strings.ToLower(filepath.Ext(base))]
	return ok
}

// SupportedFormats returns the allow-list in a stable order for logging
func SupportedFormats() []string {
	return []string{".mp3", ".wav", ".flac", ".ogg", ".m4a", ".aac", ".opus", ".wma", ".mp4", ".mkv", ".mov", ".avi", ".webm"}
}
