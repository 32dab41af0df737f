package delivery

import (
	"context"
	"errors"
)

// ErrClosed is returned by Deliver after the gateway has been closed.
var ErrClosed = errors.New("delivery gateway closed")

// Gateway hands one transcript to whichever peer asks next.
type Gateway interface {
	// Deliver opens a fresh exchange, blocks until exactly one request
	// arrives, replies with text and closes the exchange. It has no timeout;
	// only ctx cancellation or Close ends the wait early.
	Deliver(ctx context.Context, text string) error
	Close() error
}
