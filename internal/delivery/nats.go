package delivery

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/nats-io/nats.go"
	"github.com/nguyentantai21042004/voxdrop/internal/logger"
)

type natsGateway struct {
	conn    *nats.Conn
	subject string
	logger  logger.Logger

	mu     sync.Mutex
	closed bool
	cancel context.CancelFunc
}

// NewNATS connects to url and answers requests published on subject, one
// transcript per request.
func NewNATS(url, subject string, log logger.Logger) (Gateway, error) {
	conn, err := nats.Connect(url,
		nats.Name("voxdrop-delivery"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("delivery: connect to nats: %w", err)
	}
	return &natsGateway{conn: conn, subject: subject, logger: log}, nil
}

func (g *natsGateway) Deliver(ctx context.Context, text string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrClosed
	}
	g.cancel = cancel
	g.mu.Unlock()

	// A fresh subscription per transcript keeps exchanges independent.
	sub, err := g.conn.SubscribeSync(g.subject)
	if err != nil {
		return fmt.Errorf("delivery: subscribe %s: %w", g.subject, err)
	}
	defer sub.Unsubscribe()
	if err := sub.AutoUnsubscribe(1); err != nil {
		return fmt.Errorf("delivery: limit subscription: %w", err)
	}

	g.logger.Debug(ctx, "Waiting for a request on %s", g.subject)
	msg, err := sub.NextMsgWithContext(ctx)
	if err != nil {
		return fmt.Errorf("delivery: wait for request: %w", err)
	}

	g.logger.Info(ctx, "Sending transcript (%d chars) to %s", utf8.RuneCountInString(text), msg.Reply)
	if err := msg.Respond([]byte(text)); err != nil {
		return fmt.Errorf("delivery: send reply: %w", err)
	}
	if err := g.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("delivery: flush reply: %w", err)
	}
	return nil
}

func (g *natsGateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true
	if g.cancel != nil {
		g.cancel()
	}
	g.conn.Close()
	return nil
}
