package watcher

import "context"

// Watcher defines the interface for file system monitoring
type Watcher interface {
	Start(ctx context.Context) error
	Stop() error
}

// EventHandler receives a path that passed the format gate and settled
type EventHandler func(ctx context.Context, filePath string) error
